package catalog

import "github.com/marqtools/flowbuilder/pkg/schema"

// channelStatuses enumerates the terminal delivery statuses per channel.
// Condition nodes may only test statuses from the vocabulary of the channel
// their source action sends through. Status identifiers match the backend
// delivery pipeline and are not translated.
var channelStatuses = map[schema.Channel][]string{
	schema.ChannelEmail: {
		"entregue",
		"bloqueado_blacklist",
		"hard_bounce",
		"aberto",
		"clicado",
		"caixa_cheia",
		"soft_bounce",
	},
	schema.ChannelSMS: {
		"entregue",
		"nao_entregue",
		"clicado",
		"respondido",
	},
	schema.ChannelWhatsApp: {
		"entregue",
		"lido",
		"respondido",
		"falha",
	},
	schema.ChannelRCS: {
		"entregue",
		"lido",
		"clicado",
		"falha",
	},
	schema.ChannelLetter: {
		"postado",
		"entregue",
		"devolvido",
	},
}

// StatusVocabulary returns the delivery statuses for a channel, in display
// order. Returns nil for unknown channels.
func StatusVocabulary(ch schema.Channel) []string {
	statuses, ok := channelStatuses[ch]
	if !ok {
		return nil
	}
	out := make([]string, len(statuses))
	copy(out, statuses)
	return out
}

// StatusAllowed reports whether status belongs to the channel's vocabulary.
func StatusAllowed(ch schema.Channel, status string) bool {
	for _, s := range channelStatuses[ch] {
		if s == status {
			return true
		}
	}
	return false
}

// Channels returns all channels with a defined vocabulary.
func Channels() []schema.Channel {
	return []schema.Channel{
		schema.ChannelEmail,
		schema.ChannelSMS,
		schema.ChannelWhatsApp,
		schema.ChannelRCS,
		schema.ChannelLetter,
	}
}
