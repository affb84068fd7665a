package flatfile

import (
	"sort"
	"time"

	"github.com/trezcool/elimu/core/user"
)

// userRecord is the stored form of a user.User, keyed by username in `{role}s.json`.
type userRecord struct {
	ID            string    `json:"id"`
	Name          string    `json:"name,omitempty"`
	Email         string    `json:"email,omitempty"`
	PasswordHash  []byte    `json:"password_hash"`
	LinkedStudent string    `json:"linked_student,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	LastLogin     time.Time `json:"last_login,omitempty"`
}

type userTable map[string]userRecord

func usersFile(role user.Role) string { return string(role) + "s.json" }

func toRecord(usr user.User) userRecord {
	return userRecord{
		ID:            usr.ID,
		Name:          usr.Name,
		Email:         usr.Email,
		PasswordHash:  usr.PasswordHash,
		LinkedStudent: usr.LinkedStudent,
		CreatedAt:     usr.CreatedAt,
		LastLogin:     usr.LastLogin,
	}
}

func (rec userRecord) toUser(role user.Role, username string) user.User {
	return user.User{
		ID:            rec.ID,
		Role:          role,
		Username:      username,
		Name:          rec.Name,
		Email:         rec.Email,
		PasswordHash:  rec.PasswordHash,
		LinkedStudent: rec.LinkedStudent,
		CreatedAt:     rec.CreatedAt,
		LastLogin:     rec.LastLogin,
	}
}

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) load(role user.Role) (userTable, error) {
	table := make(userTable)
	if _, err := repo.db.readJSON(usersFile(role), &table); err != nil {
		return nil, err
	}
	return table, nil
}

func (repo *userRepository) CreateUser(usr user.User) (user.User, error) {
	l := repo.db.lock(usersFile(usr.Role))
	l.Lock()
	defer l.Unlock()

	table, err := repo.load(usr.Role)
	if err != nil {
		return user.User{}, err
	}
	if _, ok := table[usr.Username]; ok {
		return user.User{}, user.ErrUsernameExists
	}
	table[usr.Username] = toRecord(usr)
	if err := repo.db.writeJSON(usersFile(usr.Role), table); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) GetUser(role user.Role, username string) (user.User, error) {
	l := repo.db.lock(usersFile(role))
	l.RLock()
	defer l.RUnlock()

	table, err := repo.load(role)
	if err != nil {
		return user.User{}, err
	}
	rec, ok := table[username]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return rec.toUser(role, username), nil
}

func (repo *userRepository) QueryUsers(role user.Role) ([]user.User, error) {
	l := repo.db.lock(usersFile(role))
	l.RLock()
	defer l.RUnlock()

	table, err := repo.load(role)
	if err != nil {
		return nil, err
	}
	users := make([]user.User, 0, len(table))
	for uname, rec := range table {
		users = append(users, rec.toUser(role, uname))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (repo *userRepository) UpdateUser(usr user.User) (user.User, error) {
	l := repo.db.lock(usersFile(usr.Role))
	l.Lock()
	defer l.Unlock()

	table, err := repo.load(usr.Role)
	if err != nil {
		return user.User{}, err
	}
	orig, ok := table[usr.Username]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	// only save set fields
	rec := toRecord(usr)
	if rec.PasswordHash == nil {
		rec.PasswordHash = orig.PasswordHash
	}
	rec.ID, rec.CreatedAt = orig.ID, orig.CreatedAt
	table[usr.Username] = rec
	if err := repo.db.writeJSON(usersFile(usr.Role), table); err != nil {
		return user.User{}, err
	}
	return rec.toUser(usr.Role, usr.Username), nil
}
