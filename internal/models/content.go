package models

import "time"

// CollectionModel describes a named group of entries, e.g. "blog".
// Order is either "date" (entries sorted by date) or "number" (explicit
// order keys).
type CollectionModel struct {
	Base
	Handle   string `json:"handle"   gorm:"uniqueIndex;not null"`
	Title    string `json:"title"`
	Route    string `json:"route"`
	Order    string `json:"order"    gorm:"default:date"`
	Fieldset string `json:"fieldset"`
}

func (CollectionModel) TableName() string { return "collections" }

// EntryModel is a single entry inside a collection.
type EntryModel struct {
	Base
	Collection string     `json:"collection" gorm:"index;not null"`
	Slug       string     `json:"slug"       gorm:"index;not null"`
	Published  bool       `json:"published"  gorm:"default:true"`
	Date       *time.Time `json:"date"`
	OrderKey   *int       `json:"order"`
	Fieldset   string     `json:"fieldset"`
	Data       JSONMap    `json:"data"       gorm:"type:longtext;serializer:json"`
}

func (EntryModel) TableName() string { return "entries" }

// PageModel is a standalone page addressed by its URL path.
type PageModel struct {
	Base
	URL       string  `json:"url"       gorm:"uniqueIndex;not null"`
	Parent    string  `json:"parent"    gorm:"default:/"`
	Slug      string  `json:"slug"      gorm:"index;not null"`
	Published bool    `json:"published" gorm:"default:true"`
	OrderKey  *int    `json:"order"`
	Fieldset  string  `json:"fieldset"`
	Data      JSONMap `json:"data"      gorm:"type:longtext;serializer:json"`
}

func (PageModel) TableName() string { return "pages" }

// GlobalModel is a named set of site-wide fields, e.g. "footer".
type GlobalModel struct {
	Base
	Handle   string  `json:"handle"   gorm:"uniqueIndex;not null"`
	Title    string  `json:"title"`
	Fieldset string  `json:"fieldset"`
	Data     JSONMap `json:"data"     gorm:"type:longtext;serializer:json"`
}

func (GlobalModel) TableName() string { return "globals" }

// AssetModel records an uploaded asset so orphans can be audited later.
type AssetModel struct {
	Base
	Container string `json:"container" gorm:"index"`
	Path      string `json:"path"      gorm:"not null"`
	URL       string `json:"url"       gorm:"not null"`
	Size      int64  `json:"size"`
}

func (AssetModel) TableName() string { return "assets" }
