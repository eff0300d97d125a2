package model

// Breach is a data breach that included the looked-up email address.
type Breach struct {
	Name        string   `json:"name"`
	Title       string   `json:"title,omitempty"`
	Domain      string   `json:"domain,omitempty"`
	BreachDate  string   `json:"breach_date,omitempty"`
	DataClasses []string `json:"data_classes,omitempty"`
	PwnCount    int64    `json:"pwn_count,omitempty"`
}

// EmailInfo describes the mailbox provider behind an email address.
type EmailInfo struct {
	Domain     string   `json:"domain"`
	Provider   string   `json:"provider"`
	Disposable bool     `json:"disposable"`
	MXValid    bool     `json:"mx_valid"`
	MXHosts    []string `json:"mx_hosts,omitempty"`
}

// GPSCoordinates are the raw EXIF GPS values of an image.
type GPSCoordinates struct {
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Altitude  string `json:"altitude,omitempty"`
}

// ImageInfo is locally extracted metadata about an image subject.
type ImageInfo struct {
	// SHA3 is the hex SHA3-256 digest of the file contents.
	SHA3      string `json:"sha3"`
	SizeBytes int64  `json:"size_bytes"`
	Format    string `json:"format"`

	Camera    string          `json:"camera,omitempty"`
	Serial    string          `json:"serial,omitempty"`
	Software  string          `json:"software,omitempty"`
	Artist    string          `json:"artist,omitempty"`
	Copyright string          `json:"copyright,omitempty"`
	TakenAt   string          `json:"taken_at,omitempty"`
	GPS       *GPSCoordinates `json:"gps,omitempty"`

	// ExifTags is the number of EXIF tags found; zero when the image has none.
	ExifTags int `json:"exif_tags"`
}

// HasIdentifyingMetadata reports whether the EXIF data reveals location,
// device or author information.
func (i ImageInfo) HasIdentifyingMetadata() bool {
	return i.GPS != nil || i.Serial != "" || i.Artist != "" || i.Copyright != "" || i.Camera != ""
}

// SocialProfile is a social network profile linked from a finding.
type SocialProfile struct {
	Network string `json:"network"`
	URL     string `json:"url"`
	Handle  string `json:"handle,omitempty"`
	Source  string `json:"source"`
}

// Signals is auxiliary information produced by signal probes. Signals never
// become findings; they populate dedicated Report sections instead.
type Signals struct {
	Breaches []Breach
	Email    *EmailInfo
	Image    *ImageInfo
}
