package catalogdb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gowvp/lynx/internal/core/catalog"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func generateMockDB() (*gorm.DB, sqlmock.Sqlmock, error) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{})
	if err != nil {
		return nil, nil, err
	}
	return db, mock, nil
}

func TestSegmentGet(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	segmentDB := NewSegment(db)

	mock.ExpectQuery(`SELECT \* FROM "segments" WHERE filename=\$1 (.+) LIMIT \$2`).
		WithArgs("gate_2025-06-15_10-00-00.mp4", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "camera_id", "filename"}).
			AddRow(1, "cam1", "gate_2025-06-15_10-00-00.mp4"))

	var out catalog.Segment
	if err := segmentDB.Get(context.Background(), &out, orm.Where("filename=?", "gate_2025-06-15_10-00-00.mp4")); err != nil {
		t.Fatal(err)
	}
	if out.CameraID != "cam1" {
		t.Errorf("CameraID = %s, want cam1", out.CameraID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}

func TestSegmentCountOverlap(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	segmentDB := NewSegment(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "segments" WHERE camera_id = \$1 AND \(started_at < \$2 AND ended_at > \$3\)`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	count, err := segmentDB.Count(context.Background(),
		orm.Where("camera_id = ?", "cam1"),
		orm.Where("started_at < ? AND ended_at > ?", "2025-06-15 10:05:00", "2025-06-15 10:00:00"),
	)
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}
