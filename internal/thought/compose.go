package thought

import "strings"

// Compose renders the fields with index < upTo as "<Label>: <value>" lines
// joined by newlines, in field order. upTo is clamped to [0, N]. Empty values
// keep their label line.
func (v Values) Compose(upTo int) string {
	upTo = max(0, min(upTo, N))

	var sb strings.Builder
	for i, f := range fields[:upTo] {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(f.Label)
		sb.WriteString(": ")
		sb.WriteString(v.Text(f.Key))
	}
	return sb.String()
}

// ContextBefore is the context strictly before the field key, used to
// ground that field's suggestions. Unknown keys get the full context.
func (v Values) ContextBefore(key string) string {
	i := Index(key)
	if i < 0 {
		return v.Compose(N)
	}
	return v.Compose(i)
}

// ContextThrough is the context for the insight panel at step: every field
// completed on the way to step, which at the review step is the whole record.
func (v Values) ContextThrough(step int) string {
	return v.Compose(step)
}
