// Package firestoredb implements the repositories on Cloud Firestore: flat
// collections keyed by generated ids, conjunctive equality filters, cursor
// pagination on (createdAt, id). No multi-document transactions are used.
package firestoredb

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/edutrack/edutrack/core"
)

// collections
const (
	usersCollection       = "users"
	coursesCollection     = "courses"
	enrollmentsCollection = "enrollments"
)

// Open connects to Firestore. The returned client must be Closed on shutdown.
func Open(ctx context.Context, conf *core.Config) (*firestore.Client, error) {
	var opts []option.ClientOption
	if conf.Firebase.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(conf.Firebase.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, conf.Firebase.ProjectID, opts...)
	return client, errors.Wrap(err, "connecting to firestore")
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
