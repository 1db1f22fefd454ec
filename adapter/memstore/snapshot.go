package memstore

import (
	"bufio"
	"context"
	"io"
	"sort"

	"github.com/dolmen-go/contextio"
	json "github.com/goccy/go-json"
	"github.com/vinicius-lino-figueiredo/bst"

	"github.com/firemodel-go/firemodel/adapter/data"
)

// record is one snapshot line.
type record struct {
	Path string `json:"path"`
	Data data.M `json:"data"`
}

// Snapshot writes every document as one JSON line, in path order. Values
// round-trip through JSON, so numbers load back as float64 and timestamps
// as RFC 3339 strings.
func (s *Store) Snapshot(ctx context.Context, w io.Writer) error {
	if err := s.mu.LockWithContext(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.docs))
	for path := range s.docs {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	cw := contextio.NewWriter(ctx, w)
	for _, path := range paths {
		line, err := json.Marshal(record{Path: path, Data: s.docs[path].data})
		if err != nil {
			return err
		}
		if _, err := cw.Write(append(line, '\n')); err != nil {
			return err
		}
	}
	return nil
}

// Load replaces the store's content with a previously written snapshot.
// Registered listeners are kept but not notified; load the store before
// subscribing.
func (s *Store) Load(ctx context.Context, r io.Reader) error {
	if err := s.mu.LockWithContext(ctx); err != nil {
		return err
	}
	defer s.mu.Unlock()

	s.docs = map[string]*entry{}
	s.collections = map[string]bst.BST[string, string]{}
	s.colVersions = map[string]uint64{}
	s.version++

	scanner := bufio.NewScanner(contextio.NewReader(ctx, r))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec record
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		s.insertLocked(rec.Path, rec.Data, s.version)
	}
	return scanner.Err()
}
