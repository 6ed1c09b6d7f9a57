package vermclient

import "strings"

// normalizePath returns p with a leading "/".
func normalizePath(p string) string {
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}

// Location is a parsed location returned by Store.
//
// Verm lays out stored content as "/<directory>/<shard>/<name>[.<ext>]",
// where shard and name are derived from the content by the server. The client
// treats them as opaque strings.
type Location struct {
	// Directory is the directory the content was stored in (e.g. "/test/files").
	Directory string
	// Shard is the two-character subdirectory the server placed the content in.
	Shard string
	// Name is the file name without its extension.
	Name string
	// Extension is the extension the server derived from the content type,
	// without the leading dot. Empty if the server added none.
	Extension string
}

// String reassembles the location.
func (l *Location) String() string {
	var b strings.Builder
	b.WriteString(l.Directory)
	b.WriteByte('/')
	b.WriteString(l.Shard)
	b.WriteByte('/')
	b.WriteString(l.Name)
	if l.Extension != "" {
		b.WriteByte('.')
		b.WriteString(l.Extension)
	}
	return b.String()
}

// ParseLocation splits a location returned by Store into its components.
// For "/test/files/F0/ZdYV.txt" it returns Directory "/test/files", Shard
// "F0", Name "ZdYV" and Extension "txt".
//
// A missing leading "/" is tolerated. ParseLocation does not verify that the
// name matches any content.
func ParseLocation(loc string) (*Location, error) {
	path := strings.TrimPrefix(normalizePath(loc), "/")
	if strings.HasSuffix(path, "/") {
		return nil, invalidArgumentf("location %q ends in a directory", loc)
	}

	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return nil, invalidArgumentf("location %q has no shard", loc)
	}
	file := path[idx+1:]
	rest := path[:idx]

	idx = strings.LastIndex(rest, "/")
	if idx < 0 {
		return nil, invalidArgumentf("location %q has no directory", loc)
	}
	shard := rest[idx+1:]
	dir := "/" + rest[:idx]
	if shard == "" || dir == "/" {
		return nil, invalidArgumentf("location %q has an empty component", loc)
	}

	name, ext := file, ""
	if dot := strings.Index(file, "."); dot >= 0 {
		name, ext = file[:dot], file[dot+1:]
	}
	if name == "" {
		return nil, invalidArgumentf("location %q has an empty name", loc)
	}

	return &Location{
		Directory: dir,
		Shard:     shard,
		Name:      name,
		Extension: ext,
	}, nil
}
