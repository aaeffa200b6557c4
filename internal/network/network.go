// Package network loads plant/insect interaction files into an interaction
// tensor with dense species indices.
//
// Each line is "<patch> <plant> <insect> <weight>". Lines that do not parse,
// or carry a negative patch or a negative/non-finite weight, are skipped.
// Species are indexed in order of first appearance and the patch count is
// one more than the largest patch seen.
package network

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/pollinet/internal/dynamo"
)

// Record is one parsed interaction line.
type Record struct {
	Patch  int
	Plant  string
	Insect string
	Weight float64
}

// Network is a loaded interaction file.
type Network struct {
	Plants      []string
	Insects     []string
	PlantIndex  map[string]int
	InsectIndex map[string]int
	Gamma       *dynamo.Tensor
	Records     []Record
	Skipped     int
}

func (n *Network) Patches() int { return n.Gamma.Patches() }

// ParseRecord parses one line. ok is false for lines that must be skipped.
func ParseRecord(line string) (Record, bool) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return Record{}, false
	}
	patch, err := strconv.Atoi(fields[0])
	if err != nil || patch < 0 {
		return Record{}, false
	}
	w, err := strconv.ParseFloat(fields[3], 64)
	if err != nil || w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return Record{}, false
	}
	return Record{Patch: patch, Plant: fields[1], Insect: fields[2], Weight: w}, true
}

// Parse reads an interaction file. Blank lines and lines starting with '#'
// are ignored without counting as skipped.
func Parse(r io.Reader) (*Network, error) {
	n := &Network{
		PlantIndex:  make(map[string]int),
		InsectIndex: make(map[string]int),
	}
	patches := 0

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rec, ok := ParseRecord(line)
		if !ok {
			n.Skipped++
			continue
		}

		if _, seen := n.PlantIndex[rec.Plant]; !seen {
			n.PlantIndex[rec.Plant] = len(n.Plants)
			n.Plants = append(n.Plants, rec.Plant)
		}
		if _, seen := n.InsectIndex[rec.Insect]; !seen {
			n.InsectIndex[rec.Insect] = len(n.Insects)
			n.Insects = append(n.Insects, rec.Insect)
		}
		if rec.Patch+1 > patches {
			patches = rec.Patch + 1
		}
		n.Records = append(n.Records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read interactions: %w", err)
	}

	gamma, err := dynamo.NewTensor(patches, len(n.Plants), len(n.Insects))
	if err != nil {
		return nil, err
	}
	for _, rec := range n.Records {
		// later duplicates overwrite earlier ones
		if err := gamma.Set(rec.Patch, n.PlantIndex[rec.Plant], n.InsectIndex[rec.Insect], rec.Weight); err != nil {
			return nil, err
		}
	}
	n.Gamma = gamma
	return n, nil
}

// Load parses the interaction file at path.
func Load(path string) (*Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	n, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}
