// Package inmemdb is an in-memory implementation of the repositories, used by
// tests and local development. Per-document operations are atomic; multi-step
// flows are not, mirroring the production store's guarantees.
package inmemdb

import (
	"sync"

	"github.com/edutrack/edutrack/core/course"
	"github.com/edutrack/edutrack/core/enrollment"
	"github.com/edutrack/edutrack/core/user"
)

type (
	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}
	courseTable struct {
		mutex sync.RWMutex
		table map[string]*course.Course
	}
	enrollmentTable struct {
		mutex sync.RWMutex
		table map[string]*enrollment.Enrollment
	}

	DB struct {
		users       *userTable
		courses     *courseTable
		enrollments *enrollmentTable
	}
)

func Open() *DB {
	return &DB{
		users:       &userTable{table: make(map[string]*user.User)},
		courses:     &courseTable{table: make(map[string]*course.Course)},
		enrollments: &enrollmentTable{table: make(map[string]*enrollment.Enrollment)},
	}
}

// Reset drops all documents; test helper.
func (db *DB) Reset() {
	db.users.mutex.Lock()
	db.users.table = make(map[string]*user.User)
	db.users.mutex.Unlock()

	db.courses.mutex.Lock()
	db.courses.table = make(map[string]*course.Course)
	db.courses.mutex.Unlock()

	db.enrollments.mutex.Lock()
	db.enrollments.table = make(map[string]*enrollment.Enrollment)
	db.enrollments.mutex.Unlock()
}
