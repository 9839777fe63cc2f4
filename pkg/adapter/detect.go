package adapter

import (
	"bytes"
	"strings"

	"github.com/planar-dev/planar/pkg/model"
)

// sniffWindow is how many leading bytes format sniffing inspects.
const sniffWindow = 1000

// Detect returns the source format for the given payload. An explicit
// hint wins; "ifc" is normalized to "ifc-lite". Without a hint the
// first 1000 bytes are sniffed: DXF payloads contain both "section"
// and "entities" (case-insensitive), IFC-lite payloads mention "ifc"
// or open a JSON object. Anything else is ErrUnknownFormat.
func Detect(data []byte, formatHint string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(formatHint)) {
	case "dxf":
		return model.FormatDXF, nil
	case "ifc", "ifc-lite":
		return model.FormatIFCLite, nil
	case "":
		// fall through to sniffing
	default:
		return "", ErrUnknownFormat
	}

	head := data
	if len(head) > sniffWindow {
		head = head[:sniffWindow]
	}
	lower := strings.ToLower(string(head))

	if strings.Contains(lower, "section") && strings.Contains(lower, "entities") {
		return model.FormatDXF, nil
	}
	if strings.Contains(lower, "ifc") || bytes.ContainsRune(head, '{') {
		return model.FormatIFCLite, nil
	}
	return "", ErrUnknownFormat
}

// ForFormat returns the adapter for a detected format name, or nil for
// an unknown name.
func ForFormat(format string) Adapter {
	switch format {
	case model.FormatDXF:
		return &DXFAdapter{}
	case model.FormatIFCLite:
		return &IFCLiteAdapter{}
	default:
		return nil
	}
}
