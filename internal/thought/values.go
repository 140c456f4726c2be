package thought

import (
	"slices"
	"strings"
)

// Values holds the answers of one in-progress thought record.
type Values struct {
	Situation       string   `json:"situation"`
	ANTs            string   `json:"ants"`
	Behaviors       string   `json:"behaviors"`
	Distortions     []string `json:"distortions"`
	EvidenceAgainst string   `json:"evidenceAgainst"`
	FriendsAdvice   string   `json:"friendsAdvice"`
	BalancedThought string   `json:"balancedThought"`
}

// Text returns the value of a field rendered as text. Distortions are
// joined with ", ". Unknown keys render as "".
func (v Values) Text(key string) string {
	switch key {
	case Situation:
		return v.Situation
	case ANTs:
		return v.ANTs
	case Behaviors:
		return v.Behaviors
	case Distortions:
		return strings.Join(v.Distortions, ", ")
	case EvidenceAgainst:
		return v.EvidenceAgainst
	case FriendsAdvice:
		return v.FriendsAdvice
	case BalancedThought:
		return v.BalancedThought
	}
	return ""
}

// Set assigns a free-text field. It reports false for unknown keys and for
// the distortions field, which is edited with AddDistortion/RemoveDistortion.
func (v *Values) Set(key, text string) bool {
	switch key {
	case Situation:
		v.Situation = text
	case ANTs:
		v.ANTs = text
	case Behaviors:
		v.Behaviors = text
	case EvidenceAgainst:
		v.EvidenceAgainst = text
	case FriendsAdvice:
		v.FriendsAdvice = text
	case BalancedThought:
		v.BalancedThought = text
	default:
		return false
	}
	return true
}

// AddDistortion appends name unless it is already selected.
func (v *Values) AddDistortion(name string) bool {
	if name == "" || slices.Contains(v.Distortions, name) {
		return false
	}
	v.Distortions = append(v.Distortions, name)
	return true
}

// RemoveDistortion removes name, keeping the order of the rest.
func (v *Values) RemoveDistortion(name string) bool {
	i := slices.Index(v.Distortions, name)
	if i < 0 {
		return false
	}
	v.Distortions = slices.Delete(slices.Clone(v.Distortions), i, i+1)
	return true
}

// Clone returns a deep copy.
func (v Values) Clone() Values {
	v.Distortions = slices.Clone(v.Distortions)
	return v
}

// IsZero reports whether no field has been answered.
func (v Values) IsZero() bool {
	for _, f := range fields {
		if v.Text(f.Key) != "" {
			return false
		}
	}
	return true
}
