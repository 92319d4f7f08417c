package study

import "context"

// Repository provides persistence for studies and their folders and placements.
type Repository interface {
	Create(ctx context.Context, st *Study) error
	Get(ctx context.Context, id string) (*Study, error)
	GetByCode(ctx context.Context, code string) (*Study, error)
	List(ctx context.Context) ([]StudySummary, error)
	Count(ctx context.Context) (int, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	Update(ctx context.Context, st *Study) error
	Delete(ctx context.Context, id string) error

	CreateFolder(ctx context.Context, f *Folder) error
	UpdateFolder(ctx context.Context, f *Folder) error
	DeleteFolder(ctx context.Context, studyID, id string) error

	CreateStudyEmail(ctx context.Context, se *StudyEmail) error
	UpdateStudyEmail(ctx context.Context, se *StudyEmail) error
	DeleteStudyEmail(ctx context.Context, studyID, id string) error
}
