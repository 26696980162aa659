package firestoredb

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"

	"github.com/edutrack/edutrack/core/enrollment"
	"github.com/edutrack/edutrack/storage/database"
)

type enrollmentRepository struct {
	client *firestore.Client
}

func NewEnrollmentRepository(client *firestore.Client) enrollment.Repository {
	return &enrollmentRepository{client: client}
}

func (repo *enrollmentRepository) collection() *firestore.CollectionRef {
	return repo.client.Collection(enrollmentsCollection)
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	ref := repo.collection().NewDoc()
	enr.ID = ref.ID
	if _, err := ref.Set(ctx, enr); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "writing enrollment")
	}
	return enr, nil
}

func (repo *enrollmentRepository) GetEnrollmentByID(ctx context.Context, id string) (enrollment.Enrollment, error) {
	doc, err := repo.collection().Doc(id).Get(ctx)
	if err != nil {
		if isNotFound(err) {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "reading enrollment")
	}
	return enrollmentFromDoc(doc)
}

func (repo *enrollmentRepository) FilterEnrollments(ctx context.Context, filter enrollment.QueryFilter, opts database.ListOptions) ([]enrollment.Enrollment, database.Page, error) {
	if filter.Scope.MatchNone {
		return []enrollment.Enrollment{}, database.Page{}, nil
	}

	q := repo.collection().Query
	if !filter.IncludeRemoved {
		q = q.Where("status", "==", enrollment.StatusActive)
	}
	if filter.CourseID != "" {
		q = q.Where("courseId", "==", filter.CourseID)
	}
	if filter.StudentID != "" {
		q = q.Where("studentId", "==", filter.StudentID)
	}

	scope := filter.Scope
	if scope.TeacherID != "" {
		q = q.Where("teacherId", "==", scope.TeacherID)
	}
	if scope.StudentID != "" && scope.StudentID != filter.StudentID {
		q = q.Where("studentId", "==", scope.StudentID)
	}
	if scope.InstitutionID != "" {
		q = q.Where("institutionId", "==", scope.InstitutionID)
	}

	q = q.OrderBy("enrolledAt", firestore.Asc).OrderBy(firestore.DocumentID, firestore.Asc)
	if opts.Cursor != "" {
		enrolledAt, id, err := database.DecodeCursor(opts.Cursor)
		if err != nil {
			return nil, database.Page{}, err
		}
		q = q.StartAfter(enrolledAt, id)
	}
	if opts.Paginated() {
		q = q.Limit(opts.PageSize)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	enrs := make([]enrollment.Enrollment, 0, opts.PageSize)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, database.Page{}, errors.Wrap(err, "querying enrollments")
		}
		enr, err := enrollmentFromDoc(doc)
		if err != nil {
			return nil, database.Page{}, err
		}
		enrs = append(enrs, enr)
	}

	var page database.Page
	if opts.Paginated() && len(enrs) == opts.PageSize {
		last := enrs[len(enrs)-1]
		page.NextCursor = database.EncodeCursor(last.EnrolledAt, last.ID)
	}
	return enrs, page, nil
}

func (repo *enrollmentRepository) SetEnrollmentStatus(ctx context.Context, id, status string) error {
	_, err := repo.collection().Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: status},
	})
	if isNotFound(err) {
		return enrollment.ErrNotFound
	}
	return errors.Wrap(err, "updating enrollment status")
}

func (repo *enrollmentRepository) SetEnrollmentProgress(ctx context.Context, id string, progress int) error {
	_, err := repo.collection().Doc(id).Update(ctx, []firestore.Update{
		{Path: "progress", Value: progress},
	})
	if isNotFound(err) {
		return enrollment.ErrNotFound
	}
	return errors.Wrap(err, "updating enrollment progress")
}

func enrollmentFromDoc(doc *firestore.DocumentSnapshot) (enrollment.Enrollment, error) {
	var enr enrollment.Enrollment
	if err := doc.DataTo(&enr); err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "decoding enrollment")
	}
	enr.ID = doc.Ref.ID
	return enr, nil
}
