package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hupe1980/simring/ring"
)

func scanLines(r io.Reader, fn func(lineNo int, line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	for n := 1; sc.Scan(); n++ {
		if err := fn(n, sc.Text()); err != nil {
			return err
		}
	}

	return sc.Err()
}

func parseIDs(lineNo int, fields []string) ([]uint64, error) {
	ids := make([]uint64, len(fields))

	for i, f := range fields {
		v, err := strconv.ParseUint(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid id %q", lineNo, f)
		}

		ids[i] = v
	}

	return ids, nil
}

// ReadTriples reads one "s p o" triple per line. Blank lines are skipped.
func ReadTriples(r io.Reader) ([]ring.Triple, error) {
	var triples []ring.Triple

	err := scanLines(r, func(lineNo int, line string) error {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return nil
		}

		if len(fields) != 3 {
			return fmt.Errorf("line %d: expected 3 ids, got %d", lineNo, len(fields))
		}

		ids, err := parseIDs(lineNo, fields)
		if err != nil {
			return err
		}

		triples = append(triples, ring.Triple{S: ids[0], P: ids[1], O: ids[2]})

		return nil
	})

	return triples, err
}

// ReadKNN reads ranked neighbour lists. Line i, counting from 1, lists the
// neighbours of node i, nearest first. An empty line is a node without
// neighbours.
func ReadKNN(r io.Reader) ([][]uint64, error) {
	var adj [][]uint64

	err := scanLines(r, func(lineNo int, line string) error {
		ids, err := parseIDs(lineNo, strings.Fields(line))
		if err != nil {
			return err
		}

		adj = append(adj, ids)

		return nil
	})

	return adj, err
}

// ReadQueries returns the non-blank lines of r.
func ReadQueries(r io.Reader) ([]string, error) {
	var qs []string

	err := scanLines(r, func(_ int, line string) error {
		if line = strings.TrimSpace(line); line != "" {
			qs = append(qs, line)
		}

		return nil
	})

	return qs, err
}
