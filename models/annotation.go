package models

// AnnotationKind identifies how an annotation is rendered. Only text markers exist today.
type AnnotationKind string

const AnnotationKindText AnnotationKind = "text"

// DefaultAnnotationColor is the marker color used for every new annotation
const DefaultAnnotationColor = "#FF6B35"

// Coordinates are percentages of the rendered image's width and height
type Coordinates struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// InBounds reports whether both axes lie within [0,100]
func (c Coordinates) InBounds() bool {
	return c.X >= 0 && c.X <= 100 && c.Y >= 0 && c.Y <= 100
}

// Annotation is a text marker anchored to a photo. It is owned by its photo and
// is only ever persisted as part of the photo's annotation list.
type Annotation struct {
	ID          string         `json:"id"`
	Type        AnnotationKind `json:"type"`
	Coordinates Coordinates    `json:"coordinates"`
	Content     string         `json:"content"`
	Color       string         `json:"color"`
	CreatedBy   string         `json:"createdBy"`
}
