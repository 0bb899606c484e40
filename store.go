package cms

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// timeFormat is RFC 3339 with fixed-width nanoseconds so that the TEXT
// columns sort lexicographically in chronological order.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps a SQLite database and provides CRUD operations for the
// identity, category, post, and contact entities.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the
// data directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent read/write access, busy timeout so writers wait
	// instead of failing with SQLITE_BUSY immediately.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=OFF;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS users (
    id TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS categories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    slug TEXT NOT NULL UNIQUE,
    description TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS posts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    content TEXT NOT NULL,
    excerpt TEXT NOT NULL DEFAULT '',
    category_id TEXT,
    image_url TEXT NOT NULL DEFAULT '',
    author TEXT NOT NULL DEFAULT 'Admin',
    published INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS contacts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT NOT NULL,
    subject TEXT NOT NULL DEFAULT '',
    message TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS sessions (
    token TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    username TEXT NOT NULL,
    expires_at TEXT NOT NULL
);
`)
	return err
}

// mapErr translates driver errors into the package error taxonomy.
// Uniqueness violations become ErrConflict, missing rows ErrNotFound.
func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %s", ErrConflict, err)
	default:
		return err
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeFormat)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeFormat, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ---- users ----

// CreateUser inserts an identity. Username uniqueness is enforced by
// the storage layer.
func (s *Store) CreateUser(username, passwordHash string) (User, error) {
	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, formatTime(u.CreatedAt))
	if err != nil {
		return User{}, mapErr(err)
	}
	return u, nil
}

// GetUserByUsername looks up an identity by exact username.
func (s *Store) GetUserByUsername(username string) (User, error) {
	var u User
	var created string
	err := s.db.QueryRow(`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if err != nil {
		return User{}, mapErr(err)
	}
	u.CreatedAt = parseTime(created)
	return u, nil
}

// UpdateUserPassword replaces the stored hash for the given username.
func (s *Store) UpdateUserPassword(username, passwordHash string) error {
	res, err := s.db.Exec(`UPDATE users SET password_hash = ? WHERE username = ?`, passwordHash, username)
	if err != nil {
		return mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ---- categories ----

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories() ([]Category, error) {
	rows, err := s.db.Query(`SELECT id, name, slug, description, created_at FROM categories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// GetCategoryBySlug returns a single category by slug.
func (s *Store) GetCategoryBySlug(slug string) (Category, error) {
	row := s.db.QueryRow(`SELECT id, name, slug, description, created_at FROM categories WHERE slug = ?`, slug)
	c, err := scanCategory(row)
	if err != nil {
		return Category{}, mapErr(err)
	}
	return c, nil
}

// CreateCategory inserts a category; the slug is derived from name.
// Name and slug collisions surface as ErrConflict.
func (s *Store) CreateCategory(name, description string) (Category, error) {
	c := Category{
		ID:          uuid.NewString(),
		Name:        name,
		Slug:        Slugify(name),
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.db.Exec(`INSERT INTO categories (id, name, slug, description, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Slug, c.Description, formatTime(c.CreatedAt))
	if err != nil {
		return Category{}, mapErr(err)
	}
	return c, nil
}

// UpdateCategory applies the supplied fields. The slug is recomputed
// only when a new name is supplied.
func (s *Store) UpdateCategory(id string, name, description *string) (Category, error) {
	var sets []string
	var args []any
	if name != nil {
		sets = append(sets, "name = ?", "slug = ?")
		args = append(args, *name, Slugify(*name))
	}
	if description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *description)
	}
	if len(sets) > 0 {
		args = append(args, id)
		if _, err := s.db.Exec(`UPDATE categories SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
			return Category{}, mapErr(err)
		}
	}
	row := s.db.QueryRow(`SELECT id, name, slug, description, created_at FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if err != nil {
		return Category{}, mapErr(err)
	}
	return c, nil
}

// DeleteCategory removes a category. Posts referencing it are left in
// place; their category reference resolves to absent from then on.
func (s *Store) DeleteCategory(id string) error {
	_, err := s.db.Exec(`DELETE FROM categories WHERE id = ?`, id)
	return mapErr(err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(r rowScanner) (Category, error) {
	var c Category
	var created string
	if err := r.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &created); err != nil {
		return Category{}, err
	}
	c.CreatedAt = parseTime(created)
	return c, nil
}

// ---- posts ----

const postColumns = `p.id, p.title, p.slug, p.content, p.excerpt, p.category_id, p.image_url, p.author, p.published, p.created_at, p.updated_at,
	c.id, c.name, c.slug, c.description, c.created_at`

const postJoin = `FROM posts p LEFT JOIN categories c ON p.category_id = c.id`

func scanPost(r rowScanner) (Post, error) {
	var p Post
	var categoryID sql.NullString
	var published int
	var created, updated string
	var cID, cName, cSlug, cDesc, cCreated sql.NullString
	if err := r.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.Excerpt, &categoryID, &p.FeaturedImage,
		&p.Author, &published, &created, &updated,
		&cID, &cName, &cSlug, &cDesc, &cCreated); err != nil {
		return Post{}, err
	}
	p.CategoryID = categoryID.String
	p.Published = published == 1
	p.CreatedAt = parseTime(created)
	p.UpdatedAt = parseTime(updated)
	// A dangling category_id resolves to no category, not an error.
	if cID.Valid {
		p.Category = &Category{
			ID:          cID.String,
			Name:        cName.String,
			Slug:        cSlug.String,
			Description: cDesc.String,
			CreatedAt:   parseTime(cCreated.String),
		}
	}
	return p, nil
}

// ListPublishedPosts returns one page of published posts, newest first,
// with the category resolved. If categorySlug names a known category
// the results are filtered to it; an unknown slug leaves the listing
// unfiltered, matching the public listing's historical behavior.
func (s *Store) ListPublishedPosts(categorySlug string, page, pageSize int) (PostPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	where := `WHERE p.published = 1`
	var args []any
	if categorySlug != "" {
		cat, err := s.GetCategoryBySlug(categorySlug)
		if err == nil {
			where += ` AND p.category_id = ?`
			args = append(args, cat.ID)
		} else if !errors.Is(err, ErrNotFound) {
			return PostPage{}, err
		}
	}

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM posts p `+where, args...).Scan(&count); err != nil {
		return PostPage{}, err
	}

	query := `SELECT ` + postColumns + ` ` + postJoin + ` ` + where +
		` ORDER BY p.created_at DESC LIMIT ? OFFSET ?`
	rows, err := s.db.Query(query, append(args, pageSize, (page-1)*pageSize)...)
	if err != nil {
		return PostPage{}, err
	}
	defer rows.Close()

	result := PostPage{
		Posts:       []Post{},
		TotalPages:  (count + pageSize - 1) / pageSize,
		CurrentPage: page,
	}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return PostPage{}, err
		}
		result.Posts = append(result.Posts, p)
	}
	return result, rows.Err()
}

// GetPostBySlug returns a single post by slug with the category
// resolved. The published flag is deliberately not checked here; the
// single-post lookup has always served drafts to anyone holding the
// slug.
func (s *Store) GetPostBySlug(slug string) (Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` `+postJoin+` WHERE p.slug = ?`, slug)
	p, err := scanPost(row)
	if err != nil {
		return Post{}, mapErr(err)
	}
	return p, nil
}

// GetPostByID returns a single post by id with the category resolved.
func (s *Store) GetPostByID(id string) (Post, error) {
	row := s.db.QueryRow(`SELECT `+postColumns+` `+postJoin+` WHERE p.id = ?`, id)
	p, err := scanPost(row)
	if err != nil {
		return Post{}, mapErr(err)
	}
	return p, nil
}

// ListAllPosts returns every post, drafts included, newest first.
func (s *Store) ListAllPosts() ([]Post, error) {
	rows, err := s.db.Query(`SELECT ` + postColumns + ` ` + postJoin + ` ORDER BY p.created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CreatePost inserts a post. The slug is derived from the title; a
// colliding slug fails the whole creation with ErrConflict.
func (s *Store) CreatePost(p Post) (Post, error) {
	p.ID = uuid.NewString()
	p.Slug = Slugify(p.Title)
	if p.Author == "" {
		p.Author = "Admin"
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = p.CreatedAt

	published := 0
	if p.Published {
		published = 1
	}
	var categoryID any
	if p.CategoryID != "" {
		categoryID = p.CategoryID
	}
	_, err := s.db.Exec(`INSERT INTO posts (id, title, slug, content, excerpt, category_id, image_url, author, published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Slug, p.Content, p.Excerpt, categoryID, p.FeaturedImage, p.Author, published,
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt))
	if err != nil {
		return Post{}, mapErr(err)
	}
	return s.GetPostByID(p.ID)
}

// UpdatePost applies a patch to a post. Nil fields are left untouched;
// non-nil fields are written as given, including zero values. The slug
// is never recomputed here, even when the title changes. updated_at is
// always refreshed.
func (s *Store) UpdatePost(id string, patch PostPatch, imageURL string) (Post, error) {
	sets := []string{"updated_at = ?"}
	args := []any{formatTime(time.Now().UTC())}

	if patch.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *patch.Title)
	}
	if patch.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *patch.Content)
	}
	if patch.Excerpt != nil {
		sets = append(sets, "excerpt = ?")
		args = append(args, *patch.Excerpt)
	}
	if patch.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		if *patch.CategoryID == "" {
			args = append(args, nil)
		} else {
			args = append(args, *patch.CategoryID)
		}
	}
	if patch.Author != nil {
		sets = append(sets, "author = ?")
		args = append(args, *patch.Author)
	}
	if patch.Published != nil {
		published := 0
		if *patch.Published {
			published = 1
		}
		sets = append(sets, "published = ?")
		args = append(args, published)
	}
	if imageURL != "" {
		sets = append(sets, "image_url = ?")
		args = append(args, imageURL)
	}

	args = append(args, id)
	res, err := s.db.Exec(`UPDATE posts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return Post{}, mapErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Post{}, err
	}
	if n == 0 {
		return Post{}, ErrNotFound
	}
	return s.GetPostByID(id)
}

// DeletePost removes a post record. Asset cleanup is the caller's
// responsibility and must not gate this deletion.
func (s *Store) DeletePost(id string) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE id = ?`, id)
	return mapErr(err)
}

// ---- contacts ----

// CreateContact appends a visitor message to the inbox.
func (s *Store) CreateContact(name, email, subject, message string) (ContactMessage, error) {
	m := ContactMessage{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Subject:   subject,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.Exec(`INSERT INTO contacts (id, name, email, subject, message, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.Subject, m.Message, formatTime(m.CreatedAt))
	if err != nil {
		return ContactMessage{}, mapErr(err)
	}
	return m, nil
}

// ListContacts returns all inbox messages, newest first.
func (s *Store) ListContacts() ([]ContactMessage, error) {
	rows, err := s.db.Query(`SELECT id, name, email, subject, message, created_at FROM contacts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []ContactMessage
	for rows.Next() {
		var m ContactMessage
		var created string
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &created); err != nil {
			return nil, err
		}
		m.CreatedAt = parseTime(created)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
