// Package display projects field descriptors and enriched values into the
// shapes each rendering surface consumes: table columns, detail-header
// fields, review-queue items, and detail contexts. Everything here is a
// pure function over descriptors and rows; no I/O.
package display

import (
	"github.com/dailies-app/dailies/internal/fields/catalog"
	"github.com/dailies-app/dailies/internal/fields/enrich"
	"github.com/dailies-app/dailies/internal/fields/resolve"
	"github.com/dailies-app/dailies/internal/fields/types"
	"github.com/dailies-app/dailies/internal/record"
)

// CellKind names how a table cell renders a value.
type CellKind string

const (
	CellText      CellKind = "text"
	CellLongText  CellKind = "long_text"
	CellNumber    CellKind = "number"
	CellCheckbox  CellKind = "checkbox"
	CellDate      CellKind = "date"
	CellDateTime  CellKind = "date_time"
	CellStatus    CellKind = "status"
	CellChipList  CellKind = "chip_list"
	CellEntity    CellKind = "entity"
	CellThumbnail CellKind = "thumbnail"
	CellLink      CellKind = "link"
	CellColor     CellKind = "color"
	CellReadOnly  CellKind = "read_only"
)

// EditorKind names the editor a surface mounts for an editable field.
type EditorKind string

const (
	EditorNone         EditorKind = "none"
	EditorText         EditorKind = "text"
	EditorTextArea     EditorKind = "text_area"
	EditorNumber       EditorKind = "number"
	EditorCheckbox     EditorKind = "checkbox"
	EditorDate         EditorKind = "date"
	EditorDateTime     EditorKind = "date_time"
	EditorSingleSelect EditorKind = "single_select"
	EditorMultiSelect  EditorKind = "multi_select"
	EditorColor        EditorKind = "color"
)

// surfaceMapping is the fixed type-to-surface lookup: every field type has
// exactly one cell/editor pairing.
func surfaceMapping(t types.FieldType) (CellKind, EditorKind) {
	switch t {
	case types.Text:
		return CellText, EditorText
	case types.LongText:
		return CellLongText, EditorTextArea
	case types.Integer, types.Float, types.Duration, types.Percent, types.Currency, types.Timecode:
		return CellNumber, EditorNumber
	case types.Boolean:
		return CellCheckbox, EditorCheckbox
	case types.Date:
		return CellDate, EditorDate
	case types.DateTime:
		return CellDateTime, EditorDateTime
	case types.StatusList:
		return CellStatus, EditorSingleSelect
	case types.List:
		return CellText, EditorSingleSelect
	case types.TagList, types.MultiEntity:
		return CellChipList, EditorMultiSelect
	case types.Entity:
		return CellEntity, EditorSingleSelect
	case types.Image:
		return CellThumbnail, EditorNone
	case types.URL:
		return CellLink, EditorText
	case types.Color:
		return CellColor, EditorColor
	case types.JSON, types.Calculated, types.Query, types.Summary:
		return CellReadOnly, EditorNone
	default:
		return CellText, EditorText
	}
}

// TableColumn is the projection of a descriptor for table surfaces.
type TableColumn struct {
	Key      string     `json:"key"`
	Title    string     `json:"title"`
	Cell     CellKind   `json:"cell"`
	Editor   EditorKind `json:"editor"`
	Width    int        `json:"width"`
	Hidden   bool       `json:"hidden"`
	Sortable bool       `json:"sortable"`
	// LabelKey is the enriched-row key holding the resolved label for
	// reference columns.
	LabelKey string `json:"label_key,omitempty"`
	// LinkEntity is set when the column navigates to an entity detail
	// view. The entity's primary name column links to its own detail.
	LinkEntity string `json:"link_entity,omitempty"`
}

// ToTableColumn projects one descriptor into a table column definition.
func ToTableColumn(entity string, d resolve.Descriptor) TableColumn {
	cell, editor := surfaceMapping(d.Type)
	if d.ReadOnly {
		editor = EditorNone
	}

	column := TableColumn{
		Key:      d.Code,
		Title:    d.Label,
		Cell:     cell,
		Editor:   editor,
		Width:    d.Width,
		Hidden:   d.Hidden,
		Sortable: true,
	}
	if d.IsReference() {
		column.LabelKey = d.Code + enrich.LabelSuffix
	}
	// The entity's own primary name is promoted to a link into its detail
	// view; this is the one place adapters synthesize navigation.
	if d.Code == catalog.PrimaryNameField(entity) {
		column.Cell = CellLink
		column.LinkEntity = entity
	}
	return column
}

// TableColumns projects a full descriptor list.
func TableColumns(entity string, descriptors []resolve.Descriptor) []TableColumn {
	out := make([]TableColumn, len(descriptors))
	for i, d := range descriptors {
		out[i] = ToTableColumn(entity, d)
	}
	return out
}

// HeaderField is the projection of one descriptor plus its current value
// for detail-header surfaces.
type HeaderField struct {
	Key      string      `json:"key"`
	Title    string      `json:"title"`
	Editor   EditorKind  `json:"editor"`
	Editable bool        `json:"editable"`
	Value    interface{} `json:"value"`
	// Display is the human form of the value: the resolved label for
	// reference fields, the formatted value otherwise.
	Display string `json:"display"`
}

// ToHeaderField projects a descriptor and its value from an enriched row.
// Reference fields prefer the row's already-resolved label over
// re-deriving one.
func ToHeaderField(d resolve.Descriptor, row record.Row, opts types.FormatOptions) HeaderField {
	_, editor := surfaceMapping(d.Type)
	if d.ReadOnly {
		editor = EditorNone
	}

	value, _ := row.Get(d.Code)
	display := ""
	if d.IsReference() {
		if label, ok := row.String(d.Code + enrich.LabelSuffix); ok {
			display = label
		} else if s, ok := record.CoerceString(value); ok {
			display = s
		}
	} else {
		display = types.ForType(d.Type).Format(types.ForType(d.Type).Parse(value), opts)
	}

	return HeaderField{
		Key:      d.Code,
		Title:    d.Label,
		Editor:   editor,
		Editable: d.Editable,
		Value:    value,
		Display:  display,
	}
}

// QueueItem is the projection of one enriched row for review-queue
// surfaces (playlists, dailies sessions).
type QueueItem struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	MediaURL     string `json:"media_url,omitempty"`
	EntityLabel  string `json:"entity_label,omitempty"`
}

// ToQueueItem projects an enriched row into a review-queue item.
func ToQueueItem(entity string, row record.Row) QueueItem {
	item := QueueItem{}
	item.ID, _ = row.String("id")
	if title, ok := row.String(catalog.PrimaryNameField(entity)); ok {
		item.Title = title
	}
	item.Status, _ = row.String("status")
	item.ThumbnailURL, _ = row.String("thumbnail_url")
	item.MediaURL, _ = row.String("media_url")
	item.EntityLabel, _ = row.String(enrich.KeyEntityLinkLabel)
	return item
}

// DetailContext is the projection of one enriched row for the detail-page
// frame: identity, headline fields, and navigation.
type DetailContext struct {
	Entity       string        `json:"entity"`
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Status       string        `json:"status"`
	ThumbnailURL string        `json:"thumbnail_url,omitempty"`
	Fields       []HeaderField `json:"fields"`
}

// ToDetailContext projects an enriched row and its descriptors into the
// detail-page frame. Hidden and reference-label bookkeeping fields are
// left out of the header list.
func ToDetailContext(entity string, row record.Row, descriptors []resolve.Descriptor, opts types.FormatOptions) DetailContext {
	ctx := DetailContext{Entity: entity}
	ctx.ID, _ = row.String("id")
	ctx.Title, _ = row.String(catalog.PrimaryNameField(entity))
	ctx.Status, _ = row.String("status")
	ctx.ThumbnailURL, _ = row.String("thumbnail_url")

	for _, d := range descriptors {
		if d.Hidden || d.Type == types.Image {
			continue
		}
		ctx.Fields = append(ctx.Fields, ToHeaderField(d, row, opts))
	}
	return ctx
}
