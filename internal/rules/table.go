package rules

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Fallback is the folder for files whose extension has no rule.
const Fallback = "Others"

var ErrInvalidFolder = errors.New("invalid folder name")

// Table maps normalized extensions (".jpg") to folder names.
type Table struct {
	m map[string]string
}

// Row is one line of a rules editor: a comma separated extension list
// and the folder they go to.
type Row struct {
	Extensions string `json:"extensions"`
	Folder     string `json:"folder"`
}

func Default() *Table {
	t, _ := New(map[string]string{
		".jpg": "Images", ".jpeg": "Images", ".png": "Images", ".gif": "Images", ".bmp": "Images",
		".pdf": "Documents", ".doc": "Documents", ".docx": "Documents", ".txt": "Documents",
		".xlsx": "Documents", ".pptx": "Documents",
		".mp4": "Videos", ".mov": "Videos", ".avi": "Videos", ".mkv": "Videos",
		".mp3": "Audio", ".wav": "Audio", ".aac": "Audio",
		".zip": "Archives", ".rar": "Archives", ".7z": "Archives", ".tar": "Archives", ".gz": "Archives",
		".py": "Code", ".js": "Code", ".html": "Code", ".css": "Code", ".cpp": "Code",
		".java": "Code", ".c": "Code", ".go": "Code",
	})
	return t
}

// New builds a table from a raw mapping. Keys are normalized and keys that
// normalize to nothing are dropped. The returned error lists rejected
// folder names; the table is still usable without them.
func New(mapping map[string]string) (*Table, error) {
	t := &Table{m: make(map[string]string, len(mapping))}
	err := t.Update(mapping)
	return t, err
}

// Normalize lower-cases and trims raw extension text and gives it exactly
// one leading dot. Empty input means "no extension" and stays empty.
func Normalize(raw string) string {
	ext := strings.ToLower(strings.TrimSpace(raw))
	ext = strings.TrimLeft(ext, ". \t")
	if ext == "" {
		return ""
	}
	return "." + ext
}

// ExtOf returns the normalized extension of a file name. Dot-files such as
// ".bashrc" have no extension.
func ExtOf(name string) string {
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	if ext == base {
		return ""
	}
	return Normalize(ext)
}

// Resolve never returns an empty name.
func (t *Table) Resolve(ext string) string {
	if t == nil {
		return Fallback
	}
	if folder, ok := t.m[Normalize(ext)]; ok {
		return folder
	}
	return Fallback
}

// ResolveName is Resolve(ExtOf(name)).
func (t *Table) ResolveName(name string) string {
	return t.Resolve(ExtOf(name))
}

// Update replaces the whole table. Entries missing from mapping are gone
// afterwards.
func (t *Table) Update(mapping map[string]string) error {
	keys := make([]string, 0, len(mapping))
	for raw := range mapping {
		keys = append(keys, raw)
	}
	sort.Strings(keys)

	next := make(map[string]string, len(mapping))
	var bad []string
	for _, raw := range keys {
		folder := mapping[raw]
		ext := Normalize(raw)
		if ext == "" {
			continue
		}
		folder, err := cleanFolder(folder)
		if err != nil {
			bad = append(bad, raw)
			continue
		}
		next[ext] = folder
	}
	t.m = next
	if len(bad) > 0 {
		sort.Strings(bad)
		return fmt.Errorf("%w for %s", ErrInvalidFolder, strings.Join(bad, ", "))
	}
	return nil
}

// Mapping returns a copy of the table contents.
func (t *Table) Mapping() map[string]string {
	out := make(map[string]string, len(t.m))
	for k, v := range t.m {
		out[k] = v
	}
	return out
}

func (t *Table) Len() int { return len(t.m) }

// Rows groups the table by folder, sorted by folder name.
func (t *Table) Rows() []Row {
	byFolder := make(map[string][]string)
	for ext, folder := range t.m {
		byFolder[folder] = append(byFolder[folder], ext)
	}
	rows := make([]Row, 0, len(byFolder))
	for folder, exts := range byFolder {
		sort.Strings(exts)
		rows = append(rows, Row{Extensions: strings.Join(exts, ", "), Folder: folder})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Folder < rows[j].Folder })
	return rows
}

// FromRows expands editor rows into a mapping. Extension lists may be
// written as "jpg, png" or "{jpg,png}". When two rows name the same
// extension the later row wins.
func FromRows(rows []Row) map[string]string {
	mapping := make(map[string]string)
	for _, r := range rows {
		folder := strings.TrimSpace(r.Folder)
		if folder == "" {
			folder = Fallback
		}
		list := strings.NewReplacer("{", "", "}", "").Replace(r.Extensions)
		for _, ext := range strings.Split(list, ",") {
			if ne := Normalize(ext); ne != "" {
				mapping[ne] = folder
			}
		}
	}
	return mapping
}

func cleanFolder(folder string) (string, error) {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return Fallback, nil
	}
	if folder == "." || folder == ".." || strings.ContainsAny(folder, `/\`) || strings.Contains(folder, "..") {
		return "", ErrInvalidFolder
	}
	return folder, nil
}
