package shoppinglist

import (
	"fmt"
	"strings"
	"time"
)

// Archive is a one-time text export of the lists.
type Archive struct {
	Filename  string
	Content   string
	Items     int
	CreatedAt time.Time
}

// RenderArchive writes one block per store that has items, in store order,
// with one "[X] text" or "[ ] text" line per item. Lists whose store no
// longer exists are left out.
func RenderArchive(doc *Document, at time.Time) *Archive {
	var b strings.Builder
	fmt.Fprintf(&b, "SLIST ARCHIVE - %s\n\n", at.Format("2006-01-02 15:04:05"))

	n := 0
	for _, s := range doc.Stores {
		items := doc.ShoppingLists[s.ID]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%s:\n", s.Name)
		for _, it := range items {
			mark := "[ ]"
			if it.Completed {
				mark = "[X]"
			}
			fmt.Fprintf(&b, "%s %s\n", mark, it.Text)
			n++
		}
		b.WriteString("\n")
	}

	return &Archive{
		Filename:  fmt.Sprintf("slist-archive-%s.txt", at.UTC().Format("2006-01-02")),
		Content:   b.String(),
		Items:     n,
		CreatedAt: at,
	}
}
