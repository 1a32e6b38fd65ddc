// Package bundle wraps a structure document into a self-verifying
// envelope for shipping between installations: the XML is optionally
// zstd-compressed, base64-encoded and sealed with an xxh3 checksum of
// the uncompressed payload.
package bundle

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ruslano69/sqlkit/pkg/database"
	"github.com/ruslano69/sqlkit/pkg/schema"
)

// ErrChecksum is returned when a payload does not match its checksum.
var ErrChecksum = errors.New("checksum mismatch")

const compressionZstd = "zstd"

// Envelope is the transport form of a structure document.
type Envelope struct {
	XMLName     xml.Name  `xml:"bundle"`
	Family      string    `xml:"family,attr"`
	Tables      int       `xml:"tables,attr"`
	Created     time.Time `xml:"created,attr"`
	Compression string    `xml:"compression,attr,omitempty"`
	Checksum    string    `xml:"checksum,attr"`
	Payload     string    `xml:",chardata"`
}

// Options controls Pack.
type Options struct {
	// Level is the zstd level; 0 selects DefaultLevel.
	Level int
	// MinSize is the payload size from which compression is applied;
	// 0 selects 1 KiB, a negative value always compresses.
	MinSize int
	// Disable leaves the payload uncompressed.
	Disable bool
}

// Pack seals doc into an envelope.
func Pack(doc *schema.Document, opts Options) (*Envelope, Stats, error) {
	start := time.Now()
	raw, err := doc.Marshal()
	if err != nil {
		return nil, Stats{}, err
	}

	env := &Envelope{
		Family:   strings.TrimSuffix(doc.XMLName.Local, "dump"),
		Tables:   len(doc.Database.Tables),
		Created:  start.UTC().Truncate(time.Second),
		Checksum: Checksum(raw),
	}

	if !shouldCompress(len(raw), opts) {
		env.Payload = string(raw)
		return env, newStats(len(raw), len(raw), time.Since(start)), nil
	}

	level := opts.Level
	if level == 0 {
		level = DefaultLevel
	}
	c, err := NewCompressor(level)
	if err != nil {
		return nil, Stats{}, database.NewError(database.KindFormat, "Pack", err)
	}
	defer c.Close()

	packed := c.Compress(raw)
	env.Compression = compressionZstd
	env.Payload = string(packed)
	return env, newStats(len(raw), len(packed), time.Since(start)), nil
}

func shouldCompress(size int, opts Options) bool {
	if opts.Disable {
		return false
	}
	switch {
	case opts.MinSize < 0:
		return true
	case opts.MinSize == 0:
		return size >= minCompressSize
	default:
		return size >= opts.MinSize
	}
}

// Open verifies and decodes the document carried by the envelope.
func (e *Envelope) Open() (*schema.Document, error) {
	raw, err := e.payload()
	if err != nil {
		return nil, database.NewError(database.KindFormat, "Open", err)
	}
	if err := VerifyChecksum(raw, e.Checksum); err != nil {
		return nil, database.NewError(database.KindFormat, "Open", err)
	}
	doc, err := schema.Parse(raw)
	if err != nil {
		return nil, err
	}
	if e.Family != "" && doc.XMLName.Local != schema.RootName(e.Family) {
		return nil, database.Errorf(database.KindFormat, "Open", "bundle declares %s, payload is %s", e.Family, doc.XMLName.Local)
	}
	return doc, nil
}

func (e *Envelope) payload() ([]byte, error) {
	switch e.Compression {
	case "":
		return []byte(e.Payload), nil
	case compressionZstd:
		d, err := NewDecompressor()
		if err != nil {
			return nil, err
		}
		defer d.Close()
		return d.Decompress([]byte(strings.TrimSpace(e.Payload)))
	default:
		return nil, fmt.Errorf("unknown compression %q", e.Compression)
	}
}

// Marshal encodes the envelope with an XML declaration.
func (e *Envelope) Marshal() ([]byte, error) {
	out, err := xml.Marshal(e)
	if err != nil {
		return nil, database.NewError(database.KindFormat, "Marshal", err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// Unmarshal decodes an envelope produced by Marshal.
func Unmarshal(data []byte) (*Envelope, error) {
	var e Envelope
	if err := xml.Unmarshal(data, &e); err != nil {
		return nil, database.NewError(database.KindFormat, "Unmarshal", fmt.Errorf("failed to decode bundle: %w", err))
	}
	return &e, nil
}
