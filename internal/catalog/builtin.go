package catalog

import "github.com/marqtools/flowbuilder/pkg/schema"

// Builtin returns a Registry populated with the standard palette.
func Builtin() *Registry {
	reg := NewRegistry()
	for _, nt := range builtinTypes() {
		// Builtin entries are statically unique; Register only fails on
		// programmer error here.
		if err := reg.Register(nt); err != nil {
			panic(err)
		}
	}
	return reg
}

func builtinTypes() []NodeType {
	return []NodeType{
		// Triggers.
		{
			Kind:        schema.KindTrigger,
			Subtype:     schema.SubtypeWebhook,
			Description: "Starts the flow when an external system calls a webhook URL",
		},
		{
			Kind:        schema.KindTrigger,
			Subtype:     schema.SubtypeNewContact,
			Description: "Starts the flow when a contact enters the selected list",
		},
		{
			Kind:                 schema.KindTrigger,
			Subtype:              schema.SubtypeSchedule,
			RequiredConfigFields: []string{schema.ConfigCron},
			Description:          "Starts the flow on a recurring schedule",
		},

		// Messaging actions.
		{
			Kind:                 schema.KindAction,
			Subtype:              schema.SubtypeSendEmail,
			Channel:              schema.ChannelEmail,
			RequiredConfigFields: []string{"subject"},
			Description:          "Sends an email to the contact",
		},
		{
			Kind:                 schema.KindAction,
			Subtype:              schema.SubtypeSendSMS,
			Channel:              schema.ChannelSMS,
			RequiredConfigFields: []string{"message"},
			Description:          "Sends an SMS to the contact",
		},
		{
			Kind:                 schema.KindAction,
			Subtype:              schema.SubtypeSendWhatsApp,
			Channel:              schema.ChannelWhatsApp,
			RequiredConfigFields: []string{"templateId"},
			Description:          "Sends a WhatsApp template message to the contact",
		},
		{
			Kind:                 schema.KindAction,
			Subtype:              schema.SubtypeSendRCS,
			Channel:              schema.ChannelRCS,
			RequiredConfigFields: []string{"message"},
			Description:          "Sends an RCS message to the contact",
		},
		{
			Kind:                 schema.KindAction,
			Subtype:              schema.SubtypeSendLetter,
			Channel:              schema.ChannelLetter,
			RequiredConfigFields: []string{"templateId"},
			Description:          "Queues a printed letter for the contact",
		},

		// Data actions.
		{
			Kind:                 schema.KindAction,
			Subtype:              schema.SubtypeAddTag,
			RequiredConfigFields: []string{"tag"},
			Description:          "Adds a tag to the contact",
		},
		{
			Kind:                 schema.KindAction,
			Subtype:              schema.SubtypeUpdateContact,
			RequiredConfigFields: []string{"field", "value"},
			Description:          "Updates a contact attribute",
		},

		// Logic.
		{
			Kind:                 schema.KindLogic,
			Subtype:              schema.SubtypeWait,
			RequiredConfigFields: []string{"waitAmount", "waitUnit"},
			Description:          "Pauses the flow for a fixed interval",
		},
		{
			Kind:                 schema.KindLogic,
			Subtype:              schema.SubtypeCondition,
			RequiredConfigFields: []string{schema.ConfigSourceNodeID, schema.ConfigStatus},
			Description:          "Branches on the delivery status of a prior messaging action",
		},
		{
			Kind:                 schema.KindLogic,
			Subtype:              schema.SubtypeFilter,
			RequiredConfigFields: []string{schema.ConfigExpression},
			Description:          "Continues only for contacts matching an expression",
		},
	}
}
