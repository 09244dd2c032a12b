package ml

// FieldType tells the vector builder how to coerce a raw value.
type FieldType int

const (
	IntegerField FieldType = iota
	FloatField
)

// Field is one typed entry of the feature schema.
type Field struct {
	Name string
	Type FieldType
}

// NumFeatures is the fixed width of every feature vector.
const NumFeatures = 8

// Fields returns the feature schema: the single source of truth for the
// order in which named input is read, the order of record columns, and
// required-field validation. Every consumer must iterate this list rather
// than keep its own copy of the names.
func Fields() []Field {
	return []Field{
		{Name: "pregnancies", Type: IntegerField},
		{Name: "glucose", Type: IntegerField},
		{Name: "blood_pressure", Type: IntegerField},
		{Name: "skin_thickness", Type: IntegerField},
		{Name: "insulin", Type: IntegerField},
		{Name: "bmi", Type: FloatField},
		{Name: "diabetes_pedigree", Type: FloatField},
		{Name: "age", Type: IntegerField},
	}
}

// FieldNames returns the schema names in schema order.
func FieldNames() []string {
	fields := Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
