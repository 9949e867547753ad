package view

import "github.com/sprite-ai/coderefine/internal/model"

var changeIcons = map[model.ChangeType]string{
	model.ChangeBugFix:      "🐛",
	model.ChangePerformance: "⚡",
	model.ChangeSecurity:    "🔒",
	model.ChangeStyle:       "🎨",
	model.ChangeRefactor:    "♻️",
}

// GenericChangeIcon marks change types without a dedicated icon.
const GenericChangeIcon = "•"

// ChangeIcon returns the icon for a change type.
func ChangeIcon(t model.ChangeType) string {
	if icon, ok := changeIcons[t]; ok {
		return icon
	}
	return GenericChangeIcon
}

// ChangeItem is one rendered change.
type ChangeItem struct {
	Type        model.ChangeType
	Icon        string
	Description string
}

// RewriteView is the projected rewrite panel. Code is the raw optimized
// source destined for the code widget; it is never rendered as markup.
type RewriteView struct {
	Explanation string
	Changes     []ChangeItem
	Code        string
}

// ProjectRewrite builds the rewrite panel view.
func ProjectRewrite(r *model.RewriteResult) RewriteView {
	if r == nil {
		return RewriteView{}
	}
	v := RewriteView{
		Explanation: Sanitize(r.Explanation),
		Code:        r.OptimizedCode,
	}
	for _, c := range r.Changes {
		v.Changes = append(v.Changes, ChangeItem{
			Type:        c.Type,
			Icon:        ChangeIcon(c.Type),
			Description: SanitizeLine(c.Description),
		})
	}
	return v
}
