package parser

import (
	"bytes"
	"strings"

	"github.com/KaramelBytes/csvsentry/internal/analysis"
)

type csvDecoder struct {
	ext   string
	comma rune
}

func (d csvDecoder) CanDecode(filename string) bool {
	return d.ext != "" && strings.HasSuffix(strings.ToLower(filename), d.ext)
}

func (d csvDecoder) Decode(content []byte) ([][]string, error) {
	return analysis.ReadDelimited(bytes.NewReader(content), d.comma)
}
