package user

import (
	"sort"
)

type memRepo struct {
	users map[Role]map[string]User
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[Role]map[string]User)}
}

func (r *memRepo) CreateUser(usr User) (User, error) {
	if _, ok := r.users[usr.Role][usr.Username]; ok {
		return User{}, ErrUsernameExists
	}
	if r.users[usr.Role] == nil {
		r.users[usr.Role] = make(map[string]User)
	}
	r.users[usr.Role][usr.Username] = usr
	return usr, nil
}

func (r *memRepo) GetUser(role Role, username string) (User, error) {
	usr, ok := r.users[role][username]
	if !ok {
		return User{}, ErrNotFound
	}
	return usr, nil
}

func (r *memRepo) QueryUsers(role Role) ([]User, error) {
	users := make([]User, 0, len(r.users[role]))
	for _, usr := range r.users[role] {
		users = append(users, usr)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (r *memRepo) UpdateUser(usr User) (User, error) {
	if _, ok := r.users[usr.Role][usr.Username]; !ok {
		return User{}, ErrNotFound
	}
	r.users[usr.Role][usr.Username] = usr
	return usr, nil
}
