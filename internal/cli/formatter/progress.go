package formatter

import (
	"fmt"
	"strings"
)

const (
	filledBlock = "█"
	emptyBlock  = "░"
)

// RenderLoad renders a load bar like [████░░░░] 2/4. The bar is colored by
// LoadStyle. Without a capacity only the used count is shown.
func RenderLoad(used int, capacity *int, width int) string {
	if capacity == nil {
		return StyleBlue.Render(fmt.Sprintf("%d used", used)) + Dim(" (unconstrained)")
	}
	if width < 2 {
		width = 2
	}

	pct := 1.0
	if *capacity > 0 {
		pct = min(float64(used)/float64(*capacity), 1)
	}
	filled := int(pct * float64(width))
	bar := strings.Repeat(filledBlock, filled) + strings.Repeat(emptyBlock, width-filled)

	return fmt.Sprintf("[%s] %d/%d", LoadStyle(used, capacity).Render(bar), used, *capacity)
}
