package console

import (
	"fmt"
	"math"
)

// PercentBadge 卡片上的涨跌标记
type PercentBadge struct {
	Magnitude float64 // 截断后的绝对值，0..100
	Up        bool
}

// Badge 展示用截断: sign(p) * min(|p|, 100)，零视为上涨
func Badge(p float64) PercentBadge {
	if math.IsNaN(p) {
		p = 0
	}
	capped := math.Copysign(math.Min(math.Abs(p), 100), p)
	return PercentBadge{
		Magnitude: math.Abs(capped),
		Up:        capped >= 0,
	}
}

// Arrow 趋势符号
func (b PercentBadge) Arrow() string {
	if b.Up {
		return "▲"
	}
	return "▼"
}

func (b PercentBadge) String() string {
	return fmt.Sprintf("%s %s%%", b.Arrow(), formatPercent(b.Magnitude))
}

func formatPercent(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
