package constants

import "strings"

// Format is the declared format of a quote document.
type Format string

const (
	CSV   Format = "csv"
	TSV   Format = "tsv"
	XLSX  Format = "xlsx"
	TEXT  Format = "txt"
	PDF   Format = "pdf"
	IMAGE Format = "image"
	HTML  Format = "html"
	FORM  Format = "form"
)

// Formats lists every format the loader understands.
var Formats = []Format{CSV, TSV, XLSX, TEXT, PDF, IMAGE, HTML, FORM}

// AllowedExtensions holds the file extensions picked up by directory ingestion.
var AllowedExtensions = map[string]struct{}{
	"csv":  {},
	"tsv":  {},
	"xlsx": {},
	"txt":  {},
	"pdf":  {},
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"tif":  {},
	"tiff": {},
	"bmp":  {},
	"heic": {},
	"heif": {},
	"html": {},
	"htm":  {},
	"json": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// IsHEICExt reports whether ext names a HEIC/HEIF image.
func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif", "heics", "heifs":
		return true
	}
	return false
}

// MapExtToFormat maps a file extension to a document format.
// Unknown extensions map to the empty Format.
func MapExtToFormat(ext string) Format {
	switch NormalizeExt(ext) {
	case "csv":
		return CSV
	case "tsv", "tab":
		return TSV
	case "xlsx", "xlsm":
		return XLSX
	case "txt", "text":
		return TEXT
	case "pdf":
		return PDF
	case "png", "jpg", "jpeg", "tif", "tiff", "bmp", "heic", "heif", "heics", "heifs":
		return IMAGE
	case "html", "htm":
		return HTML
	case "json", "form":
		return FORM
	}
	return ""
}

// ParseFormat accepts either a format name ("xlsx", "image") or an extension
// (".PNG", "htm") and returns the canonical Format.
func ParseFormat(s string) (Format, bool) {
	n := NormalizeExt(s)
	for _, f := range Formats {
		if string(f) == n {
			return f, true
		}
	}
	if f := MapExtToFormat(n); f != "" {
		return f, true
	}
	return "", false
}
