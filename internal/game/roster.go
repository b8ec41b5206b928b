package game

import "fmt"

// roster keeps participants in seat order.
type roster struct {
	seats int
	list  []*Participant
}

func newRoster(seats int) *roster {
	return &roster{seats: seats}
}

func (r *roster) seat(p Participant) (*Participant, error) {
	if r.get(p.ID) != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadySeated, p.ID)
	}
	if len(r.list) >= r.seats {
		return nil, ErrTableFull
	}
	taken := make(map[int]bool, len(r.list))
	for _, q := range r.list {
		taken[q.Seat] = true
	}
	for p.Seat = 0; taken[p.Seat]; p.Seat++ {
	}
	p.Active = true
	np := &p

	i := 0
	for i < len(r.list) && r.list[i].Seat < np.Seat {
		i++
	}
	r.list = append(r.list, nil)
	copy(r.list[i+1:], r.list[i:])
	r.list[i] = np
	return np, nil
}

func (r *roster) get(id string) *Participant {
	for _, p := range r.list {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *roster) remove(id string) {
	for i, p := range r.list {
		if p.ID == id {
			r.list = append(r.list[:i], r.list[i+1:]...)
			return
		}
	}
}

func (r *roster) active() []*Participant {
	out := make([]*Participant, 0, len(r.list))
	for _, p := range r.list {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// after returns the next active participant in seat order following id,
// wrapping around the table. It may return the participant itself.
func (r *roster) after(id string) *Participant {
	start := -1
	for i, p := range r.list {
		if p.ID == id {
			start = i
			break
		}
	}
	n := len(r.list)
	for step := 1; step <= n; step++ {
		p := r.list[(start+step+n)%n]
		if p.Active {
			return p
		}
	}
	return nil
}
