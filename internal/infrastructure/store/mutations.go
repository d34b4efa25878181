package store

import "time"

// AddKeyword merges one keyword into the keyword list.
func (s *Store) AddKeyword(keyword string) {
	s.Merge(Partial{Keywords: []string{keyword}})
}

// RemoveKeyword drops a keyword; unknown keywords are a no-op.
func (s *Store) RemoveKeyword(keyword string) {
	s.Update(func(doc *Document) {
		out := doc.Keywords[:0]
		for _, k := range doc.Keywords {
			if k != keyword {
				out = append(out, k)
			}
		}
		doc.Keywords = out
	})
}

// AddTargetGroup merges one chat id into the target group list.
func (s *Store) AddTargetGroup(id int64) {
	s.Merge(Partial{TargetGroups: []int64{id}})
}

// RemoveTargetGroup drops a chat id from the target group list.
func (s *Store) RemoveTargetGroup(id int64) {
	s.Update(func(doc *Document) {
		out := doc.TargetGroups[:0]
		for _, g := range doc.TargetGroups {
			if g != id {
				out = append(out, g)
			}
		}
		doc.TargetGroups = out
	})
}

// AddIgnoreUser merges one user id into the ignore list.
func (s *Store) AddIgnoreUser(id int64) {
	s.Merge(Partial{IgnoreUsers: []int64{id}})
}

// RemoveIgnoreUser drops a user id from the ignore list.
func (s *Store) RemoveIgnoreUser(id int64) {
	s.Update(func(doc *Document) {
		out := doc.IgnoreUsers[:0]
		for _, u := range doc.IgnoreUsers {
			if u != id {
				out = append(out, u)
			}
		}
		doc.IgnoreUsers = out
	})
}

// SetClientGroups stores the known group ids for a session, creating the
// entry when absent.
func (s *Store) SetClientGroups(name string, groups []int64) {
	s.Update(func(doc *Document) {
		doc.Clients[name] = append([]int64(nil), groups...)
	})
}

// RemoveClient deletes a session from the clients map and from the
// inactive records. Unknown names are a no-op.
func (s *Store) RemoveClient(name string) {
	s.Update(func(doc *Document) {
		delete(doc.Clients, name)
		delete(doc.InactiveAccounts, name)
	})
}

// MarkInactive records a session as inactive with the given reason and
// detail, stamping the current time.
func (s *Store) MarkInactive(name, reason, details string) {
	s.Update(func(doc *Document) {
		if doc.InactiveAccounts == nil {
			doc.InactiveAccounts = map[string]InactiveAccount{}
		}
		doc.InactiveAccounts[name] = InactiveAccount{
			Reason:       reason,
			LastSeen:     time.Now().Unix(),
			ErrorDetails: details,
		}
	})
}

// ClearInactive removes the inactive record for a session, if any.
func (s *Store) ClearInactive(name string) {
	s.Update(func(doc *Document) {
		delete(doc.InactiveAccounts, name)
	})
}
