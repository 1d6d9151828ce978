package catalog

import (
	"sort"
	"sync"

	"github.com/marqtools/flowbuilder/pkg/schema"
)

// NodeType describes a node kind available in the builder palette:
// its family, configuration contract, and (for actions) channel identity.
type NodeType struct {
	Kind                 schema.NodeKind `json:"kind"`
	Subtype              string          `json:"subtype"`
	Channel              schema.Channel  `json:"channel,omitempty"`
	RequiredConfigFields []string        `json:"required_config_fields,omitempty"`
	Description          string          `json:"description,omitempty"`
}

// Lookup is the read-only view the validator and editor consume.
// Injected everywhere; never accessed as ambient global state.
type Lookup interface {
	Get(subtype string) (NodeType, bool)
	Has(subtype string) bool
	List() []NodeType
}

// Registry is the concrete thread-safe node type catalog.
type Registry struct {
	mu    sync.RWMutex
	types map[string]NodeType
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]NodeType),
	}
}

// Register adds a node type to the catalog. Returns error on duplicate subtype.
func (r *Registry) Register(nt NodeType) error {
	if nt.Subtype == "" {
		return schema.NewError(schema.ErrCodeValidation, "node type subtype is empty")
	}
	switch nt.Kind {
	case schema.KindTrigger, schema.KindAction, schema.KindLogic:
	default:
		return schema.NewErrorf(schema.ErrCodeValidation, "node type %q has unknown kind %q", nt.Subtype, nt.Kind)
	}
	if nt.Kind == schema.KindAction && isMessagingSubtype(nt.Subtype) && nt.Channel == "" {
		return schema.NewErrorf(schema.ErrCodeValidation, "messaging action %q requires a channel", nt.Subtype)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[nt.Subtype]; exists {
		return schema.NewErrorf(schema.ErrCodeConflict, "node type %q already registered", nt.Subtype)
	}

	r.types[nt.Subtype] = nt
	return nil
}

// Get retrieves a node type by subtype.
func (r *Registry) Get(subtype string) (NodeType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	nt, ok := r.types[subtype]
	return nt, ok
}

// Has checks if a subtype is registered.
func (r *Registry) Has(subtype string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.types[subtype]
	return ok
}

// List returns all registered node types, sorted by kind then subtype.
// This is the order the palette renders.
func (r *Registry) List() []NodeType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]NodeType, 0, len(r.types))
	for _, nt := range r.types {
		out = append(out, nt)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return kindRank(out[i].Kind) < kindRank(out[j].Kind)
		}
		return out[i].Subtype < out[j].Subtype
	})
	return out
}

// Count returns the number of registered node types.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

func kindRank(k schema.NodeKind) int {
	switch k {
	case schema.KindTrigger:
		return 0
	case schema.KindAction:
		return 1
	default:
		return 2
	}
}

func isMessagingSubtype(subtype string) bool {
	switch subtype {
	case schema.SubtypeSendEmail, schema.SubtypeSendSMS, schema.SubtypeSendWhatsApp,
		schema.SubtypeSendRCS, schema.SubtypeSendLetter:
		return true
	}
	return false
}
