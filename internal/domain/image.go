package domain

// Coordinates is a sky position in decimal degrees.
type Coordinates struct {
	RA  float64
	Dec float64
}

// ImageRecord represents an image to be ranked
type ImageRecord struct {
	Filename string
	// Path is the absolute path of the image on disk
	Path    string
	Coords  *Coordinates
	Rank    Rank
	Comment string
	// SecondaryFetched reports whether a provider composite exists for this image
	SecondaryFetched bool
}

// HasCoords reports whether coordinate-dependent features are available.
func (r *ImageRecord) HasCoords() bool {
	return r.Coords != nil
}

// Ranked reports whether the record currently carries a rank.
func (r *ImageRecord) Ranked() bool {
	return !r.Rank.IsZero()
}
