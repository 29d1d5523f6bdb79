// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package vault

import (
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strings"

	"github.com/MKhiriev/go-vault-broker/internal/config"
	"github.com/MKhiriev/go-vault-broker/internal/secret"
)

// searchIconID is the KeePass stock icon shown for search results.
const searchIconID = 40

// GroupNode is one node of the group tree, without entries.
type GroupNode struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Icon           int64       `json:"icon"`
	CustomIconUUID string      `json:"custom_icon_uuid,omitempty"`
	Expanded       bool        `json:"expanded"`
	Children       []GroupNode `json:"children"`
}

// EntryGroup is a titled list of entries: a group's content or search
// results.
type EntryGroup struct {
	Title          string      `json:"title"`
	Icon           int64       `json:"icon"`
	CustomIconUUID string      `json:"custom_icon_uuid,omitempty"`
	Entries        []EntryView `json:"entries"`
}

// EntryView is what a client may see of an entry. Protected values are
// listed by name only.
type EntryView struct {
	ID             string            `json:"id"`
	Title          string            `json:"title,omitempty"`
	Username       string            `json:"username,omitempty"`
	Notes          string            `json:"notes,omitempty"`
	URL            string            `json:"url,omitempty"`
	Tags           []string          `json:"tags,omitempty"`
	Icon           int64             `json:"icon"`
	CustomIconUUID string            `json:"custom_icon_uuid,omitempty"`
	Protected      []string          `json:"protected,omitempty"`
	Strings        map[string]string `json:"strings,omitempty"`
	Binary         []string          `json:"binary,omitempty"`
}

// Groups returns the group tree and the id of the group to select first:
// the one last selected in KeePass while it still exists, the root otherwise.
func (db *Database) Groups() (GroupNode, string) {
	selected := db.Root.ID
	if db.LastSelected != "" {
		if g := findGroup(&db.Root, db.LastSelected); g != nil {
			selected = g.ID
		}
	}
	return groupTree(&db.Root), selected
}

func groupTree(g *Group) GroupNode {
	node := GroupNode{
		ID:             g.ID,
		Title:          g.Name,
		Icon:           g.IconID,
		CustomIconUUID: g.CustomIconUUID,
		Expanded:       g.Expanded,
		Children:       make([]GroupNode, 0, len(g.Groups)),
	}
	for i := range g.Groups {
		node.Children = append(node.Children, groupTree(&g.Groups[i]))
	}
	return node
}

// GroupEntries lists the direct entries of a group with their visible
// summary fields only.
func (db *Database) GroupEntries(groupID string) (EntryGroup, error) {
	group := findGroup(&db.Root, groupID)
	if group == nil {
		return EntryGroup{}, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}

	out := EntryGroup{
		Title:          group.Name,
		Icon:           group.IconID,
		CustomIconUUID: group.CustomIconUUID,
		Entries:        make([]EntryView, 0, len(group.Entries)),
	}
	for i := range group.Entries {
		e := &group.Entries[i]
		out.Entries = append(out.Entries, EntryView{
			ID:             e.ID,
			Title:          e.value(KeyTitle),
			Username:       e.value(KeyUserName),
			URL:            e.value(KeyURL),
			Icon:           e.IconID,
			CustomIconUUID: e.CustomIconUUID,
		})
	}
	return out, nil
}

// Entry returns the full view of one entry.
func (db *Database) Entry(entryID string) (EntryView, error) {
	e := findEntry(&db.Root, entryID)
	if e == nil {
		return EntryView{}, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	return fullView(e), nil
}

// Protected returns one protected value. "password" is accepted for the
// standard Password field.
func (db *Database) Protected(entryID, name string) (*secret.Buffer, error) {
	e := findEntry(&db.Root, entryID)
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}

	if name == "password" {
		name = KeyPassword
	}
	f, ok := e.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFieldNotFound, name)
	}
	if !f.Protected {
		return nil, fmt.Errorf("%w: %s", ErrNotProtected, name)
	}

	return secret.CopyBuffer([]byte(f.Value)), nil
}

// Attachment returns the content of a file attached to an entry.
func (db *Database) Attachment(entryID, name string) ([]byte, error) {
	e := findEntry(&db.Root, entryID)
	if e == nil {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entryID)
	}
	for _, a := range e.Attachments {
		if a.Name == name {
			return a.Data, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
}

// Search matches entries case-insensitively. The term is taken literally
// unless the configuration allows regular expressions.
func (db *Database) Search(term string, cfg config.Search) (EntryGroup, error) {
	pattern := term
	if !cfg.AllowRegex {
		pattern = regexp.QuoteMeta(term)
	}
	rgx, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return EntryGroup{}, fmt.Errorf("%w: %w", ErrInvalidSearch, err)
	}

	out := EntryGroup{
		Title:   fmt.Sprintf("Search results for '%s'", term),
		Icon:    searchIconID,
		Entries: []EntryView{},
	}
	walkEntries(&db.Root, func(e *Entry) {
		view := fullView(e)
		if matches(view, rgx, cfg) {
			out.Entries = append(out.Entries, view)
		}
	})
	return out, nil
}

// Icon returns the PNG data of a custom icon.
func (db *Database) Icon(id string) ([]byte, error) {
	data, ok := db.Icons[strings.ToLower(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIconNotFound, id)
	}
	return data, nil
}

func fullView(e *Entry) EntryView {
	view := EntryView{
		ID:             e.ID,
		Tags:           e.Tags,
		Icon:           e.IconID,
		CustomIconUUID: e.CustomIconUUID,
		Strings:        make(map[string]string),
	}

	for _, f := range e.Fields {
		if f.Protected {
			view.Protected = append(view.Protected, f.Key)
			continue
		}
		switch f.Key {
		case KeyTitle:
			view.Title = f.Value
		case KeyUserName:
			view.Username = f.Value
		case KeyNotes:
			view.Notes = f.Value
		case KeyURL:
			view.URL = f.Value
		case KeyPassword:
		default:
			view.Strings[f.Key] = f.Value
		}
	}
	slices.Sort(view.Protected)
	for _, a := range e.Attachments {
		view.Binary = append(view.Binary, a.Name)
	}

	return view
}

func matches(view EntryView, rgx *regexp.Regexp, cfg config.Search) bool {
	for _, field := range cfg.Fields {
		var s string
		switch field {
		case "title":
			s = view.Title
		case "username":
			s = view.Username
		case "tags":
			s = strings.Join(view.Tags, ";")
		case "notes":
			s = view.Notes
		case "url":
			s = view.URL
		}
		if s != "" && rgx.MatchString(s) {
			return true
		}
	}

	if cfg.IncludeExtraFields() {
		for _, k := range slices.Sorted(maps.Keys(view.Strings)) {
			if rgx.MatchString(k) || rgx.MatchString(view.Strings[k]) {
				return true
			}
		}
		for _, k := range view.Protected {
			if rgx.MatchString(k) {
				return true
			}
		}
	}

	return false
}

func findGroup(g *Group, id string) *Group {
	if strings.EqualFold(g.ID, id) {
		return g
	}
	for i := range g.Groups {
		if found := findGroup(&g.Groups[i], id); found != nil {
			return found
		}
	}
	return nil
}

func findEntry(g *Group, id string) *Entry {
	var found *Entry
	walkEntries(g, func(e *Entry) {
		if found == nil && strings.EqualFold(e.ID, id) {
			found = e
		}
	})
	return found
}

func walkEntries(g *Group, fn func(e *Entry)) {
	for i := range g.Entries {
		fn(&g.Entries[i])
	}
	for i := range g.Groups {
		walkEntries(&g.Groups[i], fn)
	}
}
