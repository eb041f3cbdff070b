package media

import "time"

// Media is the metadata record for one uploaded object.
type Media struct {
	ID          string    `bson:"_id" json:"id"`
	UserID      string    `bson:"userId" json:"userId"`
	Key         string    `bson:"key" json:"key"`
	URL         string    `bson:"url" json:"url"` // public URL, empty when presign-only
	Thumbnail   string    `bson:"thumbnail,omitempty" json:"thumbnail,omitempty"`
	Type        string    `bson:"type" json:"type"` // image|video|file
	Size        int64     `bson:"size" json:"size"`
	ContentType string    `bson:"contentType" json:"contentType"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
}
