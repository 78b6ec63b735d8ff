package zipnames

import (
	"io"
)

// Resolved is a header together with the outcome of decoding its name.
// Err is set when the name could not be decoded; the rest of the archive
// is still listed.
type Resolved struct {
	Header   *EntryHeader
	Decision Decision
	Name     string
	Err      error
}

func resolveHeader(h *EntryHeader, cfg *Config) *Resolved {
	name, d, err := DecodeName(h, cfg)
	return &Resolved{Header: h, Decision: d, Name: name, Err: err}
}

// Entry pairs the central directory record of an archive member with its
// local header. Either side may be missing in a damaged archive.
type Entry struct {
	Central *Resolved
	Local   *Resolved
}

// Preferred returns the central record's result when there is one, as
// unzip and 7-Zip do.
func (e *Entry) Preferred() *Resolved {
	if e.Central != nil {
		return e.Central
	}
	return e.Local
}

// List reads an archive stream and decodes the name of every member from
// both of its records. A local header takes the creator system and version
// of its central record, since it has no such field of its own.
func List(r io.Reader, cfg *Config) ([]*Entry, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	sc := NewScanner(r)
	if cfg.Debug != nil {
		sc.Debug = cfg.Debug
	}
	locals := map[int64]*EntryHeader{}
	var order []int64
	var entries []*Entry

	takeLocal := func(offset int64) *EntryHeader {
		h, ok := locals[offset]
		if !ok {
			// Offsets do not match when the archive has a prefix such as
			// a self-extractor stub: fall back to stream order.
			for len(order) > 0 {
				offset, order = order[0], order[1:]
				if h, ok = locals[offset]; ok {
					break
				}
			}
		}
		if ok {
			delete(locals, offset)
		}
		return h
	}

	for sc.Scan() {
		rec := sc.Record()
		if rec.Header.Kind == LocalRecord {
			locals[rec.Offset] = rec.Header
			order = append(order, rec.Offset)
			continue
		}
		central := rec.Header
		entry := &Entry{Central: resolveHeader(central, cfg)}
		if local := takeLocal(rec.LocalOffset); local != nil {
			local.CreatorSystem = central.CreatorSystem
			local.CreatorVersion = central.CreatorVersion
			entry.Local = resolveHeader(local, cfg)
		}
		entries = append(entries, entry)
	}
	for _, offset := range order {
		if h, ok := locals[offset]; ok {
			entries = append(entries, &Entry{Local: resolveHeader(h, cfg)})
		}
	}
	if err := sc.Err(); err != io.EOF {
		return entries, err
	}
	return entries, nil
}
