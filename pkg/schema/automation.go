package schema

// AutomationDefinition is the JSON-serializable automation format.
// It is what crosses the boundary to the persistence service and what
// the editor round-trips through storage.
type AutomationDefinition struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Nodes       []NodeDefinition `json:"nodes"`
	Edges       []EdgeDefinition `json:"edges"`
}

// NodeDefinition is the persisted form of a single flow node.
type NodeDefinition struct {
	ID       string         `json:"id"`
	Kind     NodeKind       `json:"kind"`
	Subtype  string         `json:"subtype"`
	Channel  Channel        `json:"channel,omitempty"` // action nodes only
	Position Position       `json:"position"`
	Config   map[string]any `json:"config,omitempty"`
}

// EdgeDefinition is the persisted form of a directed connection.
type EdgeDefinition struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// Position is a 2D canvas coordinate. Editor-only concern, never validated.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeKind enumerates the three families of flow nodes.
type NodeKind string

const (
	KindTrigger NodeKind = "trigger"
	KindAction  NodeKind = "action"
	KindLogic   NodeKind = "logic"
)

// Trigger subtypes.
const (
	SubtypeWebhook    = "webhook"
	SubtypeNewContact = "new_contact"
	SubtypeSchedule   = "schedule"
)

// Action subtypes.
const (
	SubtypeSendEmail     = "send_email"
	SubtypeSendSMS       = "send_sms"
	SubtypeSendWhatsApp  = "send_whatsapp"
	SubtypeSendRCS       = "send_rcs"
	SubtypeSendLetter    = "send_letter"
	SubtypeAddTag        = "add_tag"
	SubtypeUpdateContact = "update_contact"
)

// Logic subtypes.
const (
	SubtypeWait      = "wait"
	SubtypeCondition = "condition"
	SubtypeFilter    = "filter"
)

// Channel identifies a messaging channel an action node sends through.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelRCS      Channel = "rcs"
	ChannelLetter   Channel = "letter"
)

// Condition node config keys. Configs are open maps; these constants keep
// field access consistent between the editor, validator, and serializer.
const (
	ConfigSourceNodeID = "sourceNodeId"
	ConfigStatus       = "status"
	ConfigExpression   = "expression"
	ConfigLanguage     = "language"
	ConfigCron         = "cron"
)
