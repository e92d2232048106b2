package surprise

import "fmt"

// Channel identifies one perceptual feature dimension over which belief and
// surprise are tracked independently.
type Channel uint8

const (
	// ChannelNone is the zero value. It is never part of a ChannelSet; it
	// marks errors that cannot be attributed to a single channel.
	ChannelNone Channel = iota
	ChannelSaliency
	ChannelGist
	ChannelColor
	ChannelIntensity
	ChannelOrientation
	ChannelFlicker
	ChannelMotion
)

// channelCodes maps single-letter configuration codes to channels.
var channelCodes = map[byte]Channel{
	'S': ChannelSaliency,
	'G': ChannelGist,
	'C': ChannelColor,
	'I': ChannelIntensity,
	'O': ChannelOrientation,
	'F': ChannelFlicker,
	'M': ChannelMotion,
}

// Code returns the single-letter configuration code for the channel.
func (c Channel) Code() byte {
	switch c {
	case ChannelSaliency:
		return 'S'
	case ChannelGist:
		return 'G'
	case ChannelColor:
		return 'C'
	case ChannelIntensity:
		return 'I'
	case ChannelOrientation:
		return 'O'
	case ChannelFlicker:
		return 'F'
	case ChannelMotion:
		return 'M'
	}
	return '?'
}

func (c Channel) String() string {
	switch c {
	case ChannelNone:
		return "none"
	case ChannelSaliency:
		return "saliency"
	case ChannelGist:
		return "gist"
	case ChannelColor:
		return "color"
	case ChannelIntensity:
		return "intensity"
	case ChannelOrientation:
		return "orientation"
	case ChannelFlicker:
		return "flicker"
	case ChannelMotion:
		return "motion"
	}
	return fmt.Sprintf("channel(%d)", uint8(c))
}

// ChannelSet is an ordered set of enabled channels. Order follows the first
// occurrence of each letter in the configuration string.
type ChannelSet []Channel

// ParseChannels parses a channel selection string such as "SCIOFMG".
// Each letter enables one channel; duplicate letters are collapsed to the
// first occurrence. An empty string or any letter outside [SCIOFMG] is a
// configuration error.
func ParseChannels(s string) (ChannelSet, error) {
	if s == "" {
		return nil, fmt.Errorf("%w: channels string is empty", ErrInvalidChannels)
	}
	var set ChannelSet
	var seen [8]bool
	for i := 0; i < len(s); i++ {
		ch, ok := channelCodes[s[i]]
		if !ok {
			return nil, fmt.Errorf("%w: invalid channel letter %q in %q (valid: SCIOFMG)",
				ErrInvalidChannels, s[i], s)
		}
		if seen[ch] {
			continue
		}
		seen[ch] = true
		set = append(set, ch)
	}
	return set, nil
}

// Contains reports whether the set includes ch.
func (cs ChannelSet) Contains(ch Channel) bool {
	for _, c := range cs {
		if c == ch {
			return true
		}
	}
	return false
}

// String renders the set back as a selection string in set order.
func (cs ChannelSet) String() string {
	b := make([]byte, len(cs))
	for i, c := range cs {
		b[i] = c.Code()
	}
	return string(b)
}
