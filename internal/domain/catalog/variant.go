package catalog

import (
	"fmt"
	"strings"
)

// Variant identifies one purchasable furniture configuration: a kind plus the
// attributes that distinguish it within that kind. Tables carry a material,
// chairs carry adjustability and armrest flags. Attribute strings are stored
// lowercase; two variants are equal iff all fields are equal.
type Variant struct {
	Kind       Kind
	Color      string
	Material   string
	Adjustable bool
	Armrest    bool
}

// InvalidAttributeError reports a variant attribute outside the allowed set
// for its kind.
type InvalidAttributeError struct {
	Kind      Kind
	Attribute string
	Value     string
	Allowed   []string
}

func (e *InvalidAttributeError) Error() string {
	return fmt.Sprintf("%s %q is not allowed for %s (allowed: %s)",
		e.Attribute, e.Value, e.Kind, strings.Join(e.Allowed, ", "))
}

// NewTableVariant builds a validated table variant. Color and material are
// matched case-insensitively against the kind's allowed sets.
func NewTableVariant(kind Kind, color, material string) (Variant, error) {
	if !kind.IsTable() {
		return Variant{}, fmt.Errorf("kind %q is not a table", kind)
	}
	color, err := normalizeAttr(kind, "color", color, kind.Colors())
	if err != nil {
		return Variant{}, err
	}
	material, err = normalizeAttr(kind, "material", material, kind.Materials())
	if err != nil {
		return Variant{}, err
	}
	return Variant{Kind: kind, Color: color, Material: material}, nil
}

// NewChairVariant builds a validated chair variant.
func NewChairVariant(kind Kind, color string, adjustable, armrest bool) (Variant, error) {
	if !kind.IsChair() {
		return Variant{}, fmt.Errorf("kind %q is not a chair", kind)
	}
	color, err := normalizeAttr(kind, "color", color, kind.Colors())
	if err != nil {
		return Variant{}, err
	}
	return Variant{Kind: kind, Color: color, Adjustable: adjustable, Armrest: armrest}, nil
}

func normalizeAttr(kind Kind, attr, value string, allowed []string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", &InvalidAttributeError{Kind: kind, Attribute: attr, Value: value, Allowed: allowed}
}

// Dimensions returns the fixed dimensions of the variant's kind.
func (v Variant) Dimensions() Dimensions {
	return v.Kind.Dimensions()
}

// Label renders a short human-readable description used in cart listings and
// error messages, e.g. "brown wood dining_table" or "black gaming_chair".
func (v Variant) Label() string {
	if v.Kind.IsTable() {
		return fmt.Sprintf("%s %s %s", v.Color, v.Material, v.Kind)
	}
	return fmt.Sprintf("%s %s", v.Color, v.Kind)
}

// companionKey indexes the curated companion tables below.
type companionKey struct {
	kind       Kind
	color      string
	material   string
	adjustable bool
	armrest    bool
}

// companionRows maps a variant to catalog row IDs of recommended companion
// pieces (chairs for tables, tables for chairs), best match first. The pairs
// were curated by merchandising and are keyed on the full attribute tuple.
var companionRows = map[companionKey][]int64{
	{kind: KindDiningTable, color: "brown", material: "wood"}:  {13, 14},
	{kind: KindDiningTable, color: "brown", material: "metal"}: {15, 16},
	{kind: KindDiningTable, color: "gray", material: "wood"}:   {17, 19},
	{kind: KindDiningTable, color: "gray", material: "metal"}:  {18, 20},

	{kind: KindWorkDesk, color: "black", material: "wood"}:  {21, 17, 24},
	{kind: KindWorkDesk, color: "black", material: "glass"}: {22, 23, 18},
	{kind: KindWorkDesk, color: "white", material: "wood"}:  {25, 26, 19},
	{kind: KindWorkDesk, color: "white", material: "glass"}: {27, 28, 18},

	{kind: KindCoffeeTable, color: "gray", material: "glass"}:   {13, 15},
	{kind: KindCoffeeTable, color: "gray", material: "plastic"}: {14, 16},
	{kind: KindCoffeeTable, color: "red", material: "glass"}:    {17, 19},
	{kind: KindCoffeeTable, color: "red", material: "plastic"}:  {18, 20},

	{kind: KindGamingChair, color: "black", adjustable: true, armrest: true}:   {7, 8},
	{kind: KindGamingChair, color: "black", adjustable: true, armrest: false}:  {8, 7},
	{kind: KindGamingChair, color: "black", adjustable: false, armrest: true}:  {6, 8},
	{kind: KindGamingChair, color: "black", adjustable: false, armrest: false}: {8, 6},
	{kind: KindGamingChair, color: "blue", adjustable: true, armrest: true}:    {5, 6},
	{kind: KindGamingChair, color: "blue", adjustable: true, armrest: false}:   {6, 5},
	{kind: KindGamingChair, color: "blue", adjustable: false, armrest: true}:   {5, 7},
	{kind: KindGamingChair, color: "blue", adjustable: false, armrest: false}:  {7, 5},

	{kind: KindWorkChair, color: "red", adjustable: true, armrest: true}:    {5, 7},
	{kind: KindWorkChair, color: "red", adjustable: true, armrest: false}:   {5, 6},
	{kind: KindWorkChair, color: "red", adjustable: false, armrest: true}:   {7, 5},
	{kind: KindWorkChair, color: "red", adjustable: false, armrest: false}:  {6, 5},
	{kind: KindWorkChair, color: "white", adjustable: true, armrest: true}:  {7, 8},
	{kind: KindWorkChair, color: "white", adjustable: true, armrest: false}: {6, 8},
	{kind: KindWorkChair, color: "white", adjustable: false, armrest: true}: {8, 7},
	{kind: KindWorkChair, color: "white", adjustable: false, armrest: false}: {8, 6},
}

// CompanionRowIDs returns the curated companion row IDs for the variant,
// best match first. Variants without a curated pairing return nil.
func CompanionRowIDs(v Variant) []int64 {
	return companionRows[companionKey{
		kind:       v.Kind,
		color:      v.Color,
		material:   v.Material,
		adjustable: v.Adjustable,
		armrest:    v.Armrest,
	}]
}
