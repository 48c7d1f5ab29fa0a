package models

import "time"

// MediaFile describes an uploaded file stored on local disk.
type MediaFile struct {
	ID string `gorm:"type:uuid;primaryKey"` // UUID primary key.

	FileName   string `gorm:"type:text;not null"`             // Original client file name.
	StoredName string `gorm:"type:text;not null;uniqueIndex"` // On-disk file name.
	MimeType   string `gorm:"type:text"`                      // Reported content type.
	Size       int64  `gorm:"not null;default:0"`             // Size in bytes.

	UploadedByID string `gorm:"type:uuid;not null;index"` // Uploader account ID.
	UploadedBy   User   `gorm:"foreignKey:UploadedByID"`  // Uploader account record.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
