// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package vault

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/tobischo/gokeepasslib/v3"

	"github.com/MKhiriev/go-vault-broker/internal/secret"
)

// Well-known KeePass string keys.
const (
	KeyTitle    = "Title"
	KeyUserName = "UserName"
	KeyPassword = "Password"
	KeyNotes    = "Notes"
	KeyURL      = "URL"
)

// Database is a decoded vault, including protected values. It only ever
// exists in memory for the duration of one request, or sealed.
type Database struct {
	Root         Group             `json:"root"`
	Icons        map[string][]byte `json:"icons,omitempty"`
	LastSelected string            `json:"last_selected,omitempty"`
}

type Group struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	IconID         int64   `json:"icon_id"`
	CustomIconUUID string  `json:"custom_icon_uuid,omitempty"`
	Expanded       bool    `json:"expanded"`
	Groups         []Group `json:"groups,omitempty"`
	Entries        []Entry `json:"entries,omitempty"`
}

type Entry struct {
	ID             string       `json:"id"`
	IconID         int64        `json:"icon_id"`
	CustomIconUUID string       `json:"custom_icon_uuid,omitempty"`
	Tags           []string     `json:"tags,omitempty"`
	Fields         []Field      `json:"fields,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

type Field struct {
	Key       string `json:"key"`
	Value     string `json:"value"`
	Protected bool   `json:"protected,omitempty"`
}

// Attachment is a file stored in an entry, already decompressed.
type Attachment struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// Get returns the field stored under key.
func (e *Entry) Get(key string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

func (e *Entry) value(key string) string {
	f, _ := e.Get(key)
	return f.Value
}

// Decode opens a KDBX stream with a password, a keyfile or both.
func Decode(r io.Reader, password *secret.Buffer, keyfile []byte) (*Database, error) {
	creds, err := credentials(password, keyfile)
	if err != nil {
		return nil, err
	}

	db := gokeepasslib.NewDatabase()
	db.Credentials = creds
	if err = gokeepasslib.NewDecoder(r).Decode(db); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if err = db.UnlockProtectedEntries(); err != nil {
		return nil, fmt.Errorf("%w: unlocking protected values: %w", ErrDecode, err)
	}

	return fromKeePass(db), nil
}

func credentials(password *secret.Buffer, keyfile []byte) (*gokeepasslib.DBCredentials, error) {
	hasPassword := password != nil && password.Len() > 0
	hasKeyfile := len(keyfile) > 0

	switch {
	case hasPassword && hasKeyfile:
		creds, err := gokeepasslib.NewPasswordAndKeyDataCredentials(string(password.Bytes()), keyfile)
		if err != nil {
			return nil, fmt.Errorf("%w: keyfile: %w", ErrDecode, err)
		}
		return creds, nil
	case hasKeyfile:
		creds, err := gokeepasslib.NewKeyDataCredentials(keyfile)
		if err != nil {
			return nil, fmt.Errorf("%w: keyfile: %w", ErrDecode, err)
		}
		return creds, nil
	case hasPassword:
		return gokeepasslib.NewPasswordCredentials(string(password.Bytes())), nil
	default:
		return nil, ErrNoCredentials
	}
}

func fromKeePass(db *gokeepasslib.Database) *Database {
	out := &Database{Icons: make(map[string][]byte)}

	if db.Content == nil {
		return out
	}

	if meta := db.Content.Meta; meta != nil {
		for _, icon := range meta.CustomIcons {
			data, err := base64.StdEncoding.DecodeString(icon.Data)
			if err != nil {
				continue
			}
			out.Icons[uuidString(icon.UUID)] = data
		}
		out.LastSelected = encodedUUIDString(meta.LastSelectedGroup)
	}

	if root := db.Content.Root; root != nil {
		switch len(root.Groups) {
		case 0:
		case 1:
			out.Root = convertGroup(db, &root.Groups[0])
		default:
			out.Root = Group{Name: "Root", Expanded: true}
			for i := range root.Groups {
				out.Root.Groups = append(out.Root.Groups, convertGroup(db, &root.Groups[i]))
			}
		}
	}

	return out
}

func convertGroup(db *gokeepasslib.Database, g *gokeepasslib.Group) Group {
	group := Group{
		ID:             uuidString(g.UUID),
		Name:           g.Name,
		IconID:         g.IconID,
		CustomIconUUID: uuidString(g.CustomIconUUID),
		Expanded:       g.IsExpanded.Bool,
	}
	for i := range g.Groups {
		group.Groups = append(group.Groups, convertGroup(db, &g.Groups[i]))
	}
	for i := range g.Entries {
		group.Entries = append(group.Entries, convertEntry(db, &g.Entries[i]))
	}
	return group
}

func convertEntry(db *gokeepasslib.Database, e *gokeepasslib.Entry) Entry {
	entry := Entry{
		ID:             uuidString(e.UUID),
		IconID:         e.IconID,
		CustomIconUUID: uuidString(e.CustomIconUUID),
		Tags:           splitTags(e.Tags),
	}
	for _, v := range e.Values {
		entry.Fields = append(entry.Fields, Field{
			Key:       v.Key,
			Value:     v.Value.Content,
			Protected: v.Value.Protected.Bool,
		})
	}
	for _, ref := range e.Binaries {
		// dangling references and corrupt payloads are skipped
		binary := db.FindBinary(ref.Value.ID)
		if binary == nil {
			continue
		}
		data, err := binary.GetContentBytes()
		if err != nil {
			continue
		}
		entry.Attachments = append(entry.Attachments, Attachment{Name: ref.Name, Data: data})
	}
	return entry
}

func splitTags(tags string) []string {
	var out []string
	for _, tag := range strings.FieldsFunc(tags, func(r rune) bool { return r == ';' || r == ',' }) {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// encodedUUIDString reads a UUID the way KeePass meta data stores it:
// base64 of the raw bytes.
func encodedUUIDString(s string) string {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(raw) != len(gokeepasslib.UUID{}) {
		return ""
	}
	return uuidString(gokeepasslib.UUID(raw))
}

func uuidString(u gokeepasslib.UUID) string {
	if u == (gokeepasslib.UUID{}) {
		return ""
	}
	return uuid.UUID(u).String()
}
