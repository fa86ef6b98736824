// Package mongo stores projects, tasks and team members in MongoDB, one
// collection per entity keyed by the generated string id.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskgrid/internal/models"
)

const (
	projectsCollection = "projects"
	tasksCollection    = "tasks"
	membersCollection  = "teammembers"
)

// Store is the MongoDB backend.
type Store struct {
	client   *mongo.Client
	projects *mongo.Collection
	tasks    *mongo.Collection
	members  *mongo.Collection
	logger   *slog.Logger
}

// Open connects to uri, checks the connection and ensures indexes.
func Open(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client:   client,
		projects: db.Collection(projectsCollection),
		tasks:    db.Collection(tasksCollection),
		members:  db.Collection(membersCollection),
		logger:   logger,
	}
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("connected to mongo", slog.String("database", database))
	return s, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping checks that the server answers.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "project", Value: 1}}},
		{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("task indexes: %w", err)
	}
	_, err = s.members.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}, {Key: "role", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("team member indexes: %w", err)
	}
	return nil
}

var byCreation = options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, byCreation)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, notFound error) (T, error) {
	var out T
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	err := coll.FindOne(ctx, filter, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return out, notFound
	}
	return out, err
}

func replace(ctx context.Context, coll *mongo.Collection, id string, doc any, notFound error) error {
	res, err := coll.ReplaceOne(ctx, bson.M{"_id": id}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return notFound
	}
	return nil
}

func remove(ctx context.Context, coll *mongo.Collection, id string, notFound error) error {
	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return notFound
	}
	return nil
}

// ListProjects returns all projects, oldest first.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	projects, err := findAll[models.Project](ctx, s.projects, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// GetProject fetches a project by id.
func (s *Store) GetProject(ctx context.Context, id string) (models.Project, error) {
	p, err := findOne[models.Project](ctx, s.projects, bson.M{"_id": id}, models.ErrProjectNotFound)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return models.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, err
}

// CreateProject inserts a project.
func (s *Store) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	if _, err := s.projects.InsertOne(ctx, p); err != nil {
		return models.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

// UpdateProject replaces a stored project.
func (s *Store) UpdateProject(ctx context.Context, p models.Project) (models.Project, error) {
	if err := replace(ctx, s.projects, p.ID, p, models.ErrProjectNotFound); err != nil {
		return models.Project{}, err
	}
	return p, nil
}

// DeleteProject removes a project; tasks referencing it stay.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	return remove(ctx, s.projects, id, models.ErrProjectNotFound)
}

// ListTasks returns tasks matching filter, oldest first.
func (s *Store) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	query := bson.M{}
	if filter.ProjectID != "" {
		query["project"] = filter.ProjectID
	}
	if filter.AssigneeID != "" {
		query["assignedTo"] = filter.AssigneeID
	}
	tasks, err := findAll[models.Task](ctx, s.tasks, query)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	for i := range tasks {
		if tasks[i].Comments == nil {
			tasks[i].Comments = []models.Comment{}
		}
	}
	return tasks, nil
}

// GetTask fetches a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	t, err := findOne[models.Task](ctx, s.tasks, bson.M{"_id": id}, models.ErrTaskNotFound)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return models.Task{}, fmt.Errorf("get task: %w", err)
	}
	if t.Comments == nil {
		t.Comments = []models.Comment{}
	}
	return t, err
}

// CreateTask inserts a task with its embedded comments.
func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if t.Comments == nil {
		t.Comments = []models.Comment{}
	}
	if _, err := s.tasks.InsertOne(ctx, t); err != nil {
		return models.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// UpdateTask replaces a stored task, comments included.
func (s *Store) UpdateTask(ctx context.Context, t models.Task) (models.Task, error) {
	if t.Comments == nil {
		t.Comments = []models.Comment{}
	}
	if err := replace(ctx, s.tasks, t.ID, t, models.ErrTaskNotFound); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	return remove(ctx, s.tasks, id, models.ErrTaskNotFound)
}

// ListMembers returns all members, oldest first.
func (s *Store) ListMembers(ctx context.Context) ([]models.TeamMember, error) {
	members, err := findAll[models.TeamMember](ctx, s.members, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	return members, nil
}

// GetMember fetches a member by id.
func (s *Store) GetMember(ctx context.Context, id string) (models.TeamMember, error) {
	return s.findMember(ctx, bson.M{"_id": id})
}

// FindMemberByNameRole returns the earliest created member with that name and role.
func (s *Store) FindMemberByNameRole(ctx context.Context, name string, role models.Role) (models.TeamMember, error) {
	return s.findMember(ctx, bson.M{"name": name, "role": role})
}

func (s *Store) findMember(ctx context.Context, filter bson.M) (models.TeamMember, error) {
	m, err := findOne[models.TeamMember](ctx, s.members, filter, models.ErrMemberNotFound)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return models.TeamMember{}, fmt.Errorf("get team member: %w", err)
	}
	return m, err
}

// CreateMember inserts a member.
func (s *Store) CreateMember(ctx context.Context, m models.TeamMember) (models.TeamMember, error) {
	if _, err := s.members.InsertOne(ctx, m); err != nil {
		return models.TeamMember{}, fmt.Errorf("insert team member: %w", err)
	}
	return m, nil
}

// UpdateMember replaces a stored member.
func (s *Store) UpdateMember(ctx context.Context, m models.TeamMember) (models.TeamMember, error) {
	if err := replace(ctx, s.members, m.ID, m, models.ErrMemberNotFound); err != nil {
		return models.TeamMember{}, err
	}
	return m, nil
}

// DeleteMember removes a member; tasks assigned to them stay.
func (s *Store) DeleteMember(ctx context.Context, id string) error {
	return remove(ctx, s.members, id, models.ErrMemberNotFound)
}

// CountMembers returns the number of stored members.
func (s *Store) CountMembers(ctx context.Context) (int, error) {
	n, err := s.members.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count team members: %w", err)
	}
	return int(n), nil
}
