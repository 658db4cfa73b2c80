package subtitles

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/forPelevin/vocalcut/internal/types"
)

// RenderCutASS renders captions for the assembled output. Plan segments are
// laid end to end, so each caption is shifted onto the condensed timeline.
func RenderCutASS(plan types.CutPlan) (string, error) {
	if len(plan) == 0 {
		return "", errors.New("subtitles: empty plan")
	}
	var events []line
	var offset time.Duration
	for _, s := range plan {
		d := dur(s.End) - dur(s.Start)
		if d <= 0 {
			continue
		}
		events = append(events, splitCaption(sanitizeASS(s.Text), offset, offset+d)...)
		offset += d
	}
	return renderASS(events), nil
}

type line struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// splitCaption breaks long captions into chunks of at most charBudget runes
// and shares the segment time between them by length.
func splitCaption(text string, start, end time.Duration) []line {
	const charBudget = 28
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= charBudget {
		return []line{{Start: start, End: end, Text: text}}
	}

	var out []line
	total := end - start
	cur := start
	for i := 0; i < len(runes); i += charBudget {
		j := i + charBudget
		if j > len(runes) {
			j = len(runes)
		}
		chunkEnd := start + time.Duration(int64(total)*int64(j)/int64(len(runes)))
		if j == len(runes) {
			chunkEnd = end
		}
		out = append(out, line{Start: cur, End: chunkEnd, Text: strings.TrimSpace(string(runes[i:j]))})
		cur = chunkEnd
	}
	return out
}

func renderASS(lines []line) string {
	var b strings.Builder
	b.WriteString(assHeader())
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, ln := range lines {
		if ln.Text == "" {
			continue
		}
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(ln.Start))
		b.WriteString(",")
		b.WriteString(assTime(ln.End))
		b.WriteString(",Caption,,0,0,0,,")
		b.WriteString(ln.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func assHeader() string {
	return strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: 1920
PlayResY: 1080
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Caption, Noto Sans CJK SC, 64, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,4,1,2, 80,80,60,1
`)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitizeASS(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
