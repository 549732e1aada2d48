package witness

// TimelineItem is one entry of a vis-timeline DataSet.
type TimelineItem struct {
	ID      string `json:"id"`
	Content string `json:"content"`
	Start   string `json:"start"`
}

// Timeline returns the enabled witnesses as timeline items, oldest first.
func (r *Registry) Timeline() []TimelineItem {
	items := make([]TimelineItem, 0, len(r.enabled))
	for _, w := range r.enabled {
		items = append(items, TimelineItem{
			ID:      w.ID,
			Content: w.Label,
			Start:   w.Date.ISO(),
		})
	}
	return items
}
