package models

// BackupSet holds the last reported state of one source/destination pair.
type BackupSet struct {
	ID            uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	Source        string `json:"source" gorm:"type:varchar(100);not null;uniqueIndex:idx_backupsets_pair"`
	Destination   string `json:"destination" gorm:"type:varchar(100);not null;uniqueIndex:idx_backupsets_pair"`
	LastFileCount int64  `json:"last_file_count"`
	LastFileSize  int64  `json:"last_file_size"`
	LastDate      string `json:"last_date" gorm:"type:varchar(50)"`
	LastTime      string `json:"last_time" gorm:"type:varchar(50)"`
}

// TableName specifies the table name for BackupSet
func (BackupSet) TableName() string {
	return "backupsets"
}

// Snapshot defaults for a pair that has never been reported.
const (
	EpochDate = "2000/01/01"
	EpochTime = "00:00:00"
)

// NewBackupSet returns a pair with a zeroed snapshot.
func NewBackupSet(source, destination string) BackupSet {
	return BackupSet{
		Source:      source,
		Destination: destination,
		LastDate:    EpochDate,
		LastTime:    EpochTime,
	}
}
