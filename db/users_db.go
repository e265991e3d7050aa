package db

import (
	"database/sql"
	"time"

	"arborist-study-api/apperr"
	"arborist-study-api/models"
	"arborist-study-api/utils"
)

func (db *DB) CreateUser(req models.RegisterRequest, passwordHash string) (*models.User, error) {
	now := time.Now().UTC()

	language := req.Language
	if language == "" {
		language = "es"
	}

	id, err := db.ExecReturningID(`
        INSERT INTO users (username, email, password_hash, name, language, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `, req.Username, req.Email, passwordHash, req.Name, language, now, now)
	if err != nil {
		utils.LogError("CreateUser failed: %v", err)
		// UNIQUE violation on username/email
		return nil, apperr.Wrap(apperr.Conflict, "Username or email already registered", err)
	}

	return &models.User{
		ID:        int(id),
		Username:  req.Username,
		Email:     req.Email,
		Name:      req.Name,
		Language:  language,
		CreatedAt: now,
		UpdatedAt: now,
		Progress:  models.NewUserProgress(),
	}, nil
}

// GetUserByUsername returns the user and their password hash for credential
// checks
func (db *DB) GetUserByUsername(username string) (*models.User, string, error) {
	var u models.User
	var hash string

	err := db.QueryRow(`
        SELECT id, username, email, password_hash, name, language, created_at, updated_at
        FROM users WHERE username = ?
    `, username).Scan(&u.ID, &u.Username, &u.Email, &hash, &u.Name, &u.Language, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", apperr.NotFoundf("User not found")
		}
		utils.LogError("GetUserByUsername(%s) failed: %v", username, err)
		return nil, "", err
	}

	return &u, hash, nil
}

func (db *DB) GetUserByID(id int) (*models.User, error) {
	var u models.User

	err := db.QueryRow(`
        SELECT id, username, email, name, language, created_at, updated_at
        FROM users WHERE id = ?
    `, id).Scan(&u.ID, &u.Username, &u.Email, &u.Name, &u.Language, &u.CreatedAt, &u.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperr.NotFoundf("User not found")
		}
		utils.LogError("GetUserByID(%d) failed: %v", id, err)
		return nil, err
	}

	return &u, nil
}
