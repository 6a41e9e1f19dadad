package models

// Email is one ingested backup notification. Rows are written once and never updated.
type Email struct {
	ID         uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	MessageID  string `json:"message_id" gorm:"type:varchar(255);not null;uniqueIndex"`
	SourceComp string `json:"source_comp" gorm:"type:varchar(100);not null;index:idx_emails_src_dest"`
	DestComp   string `json:"dest_comp" gorm:"type:varchar(100);not null;index:idx_emails_src_dest"`
	EmailDate  string `json:"email_date" gorm:"type:varchar(50)"`
	EmailTime  string `json:"email_time" gorm:"type:varchar(50)"`

	DeletedFiles      int64 `json:"deleted_files"`
	DeletedFolders    int64 `json:"deleted_folders"`
	ModifiedFiles     int64 `json:"modified_files"`
	ExaminedFiles     int64 `json:"examined_files"`
	OpenedFiles       int64 `json:"opened_files"`
	AddedFiles        int64 `json:"added_files"`
	NotProcessedFiles int64 `json:"not_processed_files"`
	AddedFolders      int64 `json:"added_folders"`
	TooLargeFiles     int64 `json:"too_large_files"`
	FilesWithError    int64 `json:"files_with_error"`
	ModifiedFolders   int64 `json:"modified_folders"`
	ModifiedSymlinks  int64 `json:"modified_symlinks"`
	AddedSymlinks     int64 `json:"added_symlinks"`
	DeletedSymlinks   int64 `json:"deleted_symlinks"`

	SizeOfModifiedFiles int64 `json:"size_of_modified_files"`
	SizeOfAddedFiles    int64 `json:"size_of_added_files"`
	SizeOfExaminedFiles int64 `json:"size_of_examined_files"`
	SizeOfOpenedFiles   int64 `json:"size_of_opened_files"`

	PartialBackup string `json:"partial_backup" gorm:"type:varchar(30)"`
	DryRun        string `json:"dry_run" gorm:"type:varchar(30)"`
	MainOperation string `json:"main_operation" gorm:"type:varchar(30)"`
	ParsedResult  string `json:"parsed_result" gorm:"type:varchar(30)"`
	VerboseOutput string `json:"verbose_output" gorm:"type:varchar(30)"`
	VerboseErrors string `json:"verbose_errors" gorm:"type:varchar(30)"`

	BeginDate string `json:"begin_date" gorm:"type:varchar(30)"`
	BeginTime string `json:"begin_time" gorm:"type:varchar(30)"`
	EndDate   string `json:"end_date" gorm:"type:varchar(30);index:idx_emails_end"`
	EndTime   string `json:"end_time" gorm:"type:varchar(30);index:idx_emails_end"`
	Duration  string `json:"duration" gorm:"type:varchar(30)"`

	Messages  string `json:"messages" gorm:"type:text"`
	Warnings  string `json:"warnings" gorm:"type:text"`
	Errors    string `json:"errors" gorm:"type:text"`
	FailedMsg string `json:"failed_msg" gorm:"type:text"`
}

// TableName specifies the table name for Email
func (Email) TableName() string {
	return "emails"
}
