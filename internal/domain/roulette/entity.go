// Package roulette содержит доменную модель кофейной рулетки:
// участников, раунды, голоса, исторические пары и группы ограничений.
// Здесь нет внешних зависимостей и нет обращений к хранилищу.
package roulette

import (
	"sort"
	"strings"
	"time"

	"github.com/coffee-roulette/roulette-hub/internal/domain/shared"
	"github.com/coffee-roulette/roulette-hub/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// IDENTIFIERS
// ══════════════════════════════════════════════════════════════════════════════

// UserID - идентификатор участника. Идентификаторы упорядочены,
// пара всегда хранится как (меньший, больший).
type UserID int64

// RouletteID - идентификатор раунда рулетки.
type RouletteID int64

// ══════════════════════════════════════════════════════════════════════════════
// USER
// ══════════════════════════════════════════════════════════════════════════════

// User - участник рулетки.
type User struct {
	ID    UserID
	Name  string
	Email string
}

// NewUser создаёт участника, проверяя обязательные поля.
func NewUser(name, email string) (*User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.ErrInvalidUserName
	}
	return &User{Name: name, Email: strings.TrimSpace(email)}, nil
}

// String возвращает имя участника.
func (u User) String() string {
	return u.Name
}

// SortUsersByID сортирует участников по возрастанию идентификатора.
func SortUsersByID(users []User) {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
}

// ══════════════════════════════════════════════════════════════════════════════
// ROULETTE
// ══════════════════════════════════════════════════════════════════════════════

// State - краткое состояние раунда.
type State string

const (
	// StateVoting - идёт голосование.
	StateVoting State = "VOTING"
	// StateMatchNow - голосование закрыто, пары ещё не зафиксированы.
	StateMatchNow State = "MATCH NOW"
	// StateCoffee - пары зафиксированы, участники встречаются.
	StateCoffee State = "COFFEE"
	// StateFinished - раунд завершён.
	StateFinished State = "FINISHED"
)

// Roulette - один раунд рулетки.
// MatchingsFoundOn == nil означает, что пары ещё не зафиксированы;
// после фиксации поле больше никогда не меняется.
type Roulette struct {
	ID               RouletteID
	VoteDeadline     time.Time
	CoffeeDeadline   time.Time
	MatchingsFoundOn *time.Time
}

// NewRoulette создаёт раунд. Дедлайн голосования должен быть раньше дедлайна встреч.
func NewRoulette(voteDeadline, coffeeDeadline time.Time) (*Roulette, error) {
	r := &Roulette{VoteDeadline: voteDeadline, CoffeeDeadline: coffeeDeadline}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate проверяет соотношение дедлайнов.
func (r *Roulette) Validate() error {
	if !r.VoteDeadline.Before(r.CoffeeDeadline) {
		return shared.ErrInvalidDeadlines
	}
	return nil
}

// IsFinalized возвращает true, если пары уже зафиксированы.
func (r *Roulette) IsFinalized() bool {
	return r.MatchingsFoundOn != nil
}

// CanChangeVotes - голоса можно менять, пока пары не зафиксированы.
func (r *Roulette) CanChangeVotes() bool {
	return !r.IsFinalized()
}

// CanGenerateMatches - генерировать пары можно после окончания голосования
// и до фиксации результата.
func (r *Roulette) CanGenerateMatches(now time.Time) bool {
	return now.After(r.VoteDeadline) && !r.IsFinalized()
}

// ShortState возвращает краткое состояние раунда на момент now.
func (r *Roulette) ShortState(now time.Time) State {
	switch {
	case now.Before(r.VoteDeadline):
		return StateVoting
	case !r.IsFinalized():
		return StateMatchNow
	case now.Before(r.CoffeeDeadline):
		return StateCoffee
	default:
		return StateFinished
	}
}

// Remaining возвращает строку об оставшемся времени:
// до конца голосования, до конца встреч или сколько прошло после.
func (r *Roulette) Remaining(now time.Time) string {
	switch {
	case now.Before(r.VoteDeadline):
		return timeutil.HumanizeDuration(r.VoteDeadline.Sub(now)) + " until voting ends"
	case now.Before(r.CoffeeDeadline):
		return timeutil.HumanizeDuration(r.CoffeeDeadline.Sub(now)) + " until coffee ends"
	default:
		return "coffee ended " + timeutil.HumanizeDuration(now.Sub(r.CoffeeDeadline)) + " ago"
	}
}

// LastCompleted возвращает раунд с самой поздней датой фиксации пар.
// Незафиксированные раунды не учитываются; nil, если таких нет.
func LastCompleted(roulettes []Roulette) *Roulette {
	var last *Roulette
	for i := range roulettes {
		r := &roulettes[i]
		if r.MatchingsFoundOn == nil {
			continue
		}
		if last == nil || r.MatchingsFoundOn.After(*last.MatchingsFoundOn) {
			last = r
		}
	}
	return last
}

// ══════════════════════════════════════════════════════════════════════════════
// VOTE
// ══════════════════════════════════════════════════════════════════════════════

// Choice - выбор участника в раунде.
type Choice string

const (
	// ChoiceYes - участвует.
	ChoiceYes Choice = "Y"
	// ChoiceNo - не участвует.
	ChoiceNo Choice = "N"
	// ChoiceNone - ещё не голосовал.
	ChoiceNone Choice = "0"
)

// IsValid проверяет корректность выбора.
func (c Choice) IsValid() bool {
	switch c {
	case ChoiceYes, ChoiceNo, ChoiceNone:
		return true
	default:
		return false
	}
}

// Pretty возвращает человекочитаемое название выбора.
func (c Choice) Pretty() string {
	switch c {
	case ChoiceYes:
		return "Yes"
	case ChoiceNo:
		return "No"
	case ChoiceNone:
		return "No vote"
	default:
		return "Invalid vote"
	}
}

// ParseChoice разбирает выбор из строки ("y", "yes", "n", "no", "0").
func ParseChoice(s string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return ChoiceYes, nil
	case "n", "no":
		return ChoiceNo, nil
	case "0", "", "none":
		return ChoiceNone, nil
	default:
		return "", shared.ErrInvalidVoteChoice
	}
}

// Vote - голос участника в раунде. На пару (раунд, участник) - ровно один голос.
type Vote struct {
	RouletteID RouletteID
	User       User
	Choice     Choice
}

// ══════════════════════════════════════════════════════════════════════════════
// MATCHES
// ══════════════════════════════════════════════════════════════════════════════

// Match - зафиксированная пара внутри раунда. UserA < UserB.
type Match struct {
	RouletteID RouletteID
	UserA      UserID
	UserB      UserID
}

// NewMatch создаёт пару в каноническом порядке.
func NewMatch(rouletteID RouletteID, a, b UserID) Match {
	if b < a {
		a, b = b, a
	}
	return Match{RouletteID: rouletteID, UserA: a, UserB: b}
}

// Other возвращает второго участника пары.
func (m Match) Other(id UserID) UserID {
	if m.UserA == id {
		return m.UserB
	}
	return m.UserA
}

// Involves проверяет, входит ли участник в пару.
func (m Match) Involves(id UserID) bool {
	return m.UserA == id || m.UserB == id
}

// PastMatch - пара из истории вместе с датой фиксации её раунда.
type PastMatch struct {
	Match
	CompletedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// GROUPS
// ══════════════════════════════════════════════════════════════════════════════

// ExclusionGroup - участники группы никогда не попадают в одну пару.
type ExclusionGroup struct {
	ID         int64
	CustomName string
	Members    []User
}

// Name возвращает заданное имя или имена участников через запятую.
func (g ExclusionGroup) Name() string {
	return groupName(g.CustomName, g.Members, "Empty exclusion group")
}

// MemberIDs возвращает идентификаторы участников.
func (g ExclusionGroup) MemberIDs() []UserID {
	return memberIDs(g.Members)
}

// PenaltyGroup - совместное участие в группе штрафует пару.
type PenaltyGroup struct {
	ID         int64
	CustomName string
	Members    []User
}

// Name возвращает заданное имя или имена участников через запятую.
func (g PenaltyGroup) Name() string {
	return groupName(g.CustomName, g.Members, "Empty penalty group")
}

// MemberIDs возвращает идентификаторы участников.
func (g PenaltyGroup) MemberIDs() []UserID {
	return memberIDs(g.Members)
}

func groupName(custom string, members []User, empty string) string {
	if custom != "" {
		return custom
	}
	if len(members) == 0 {
		return empty
	}
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func memberIDs(members []User) []UserID {
	ids := make([]UserID, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return ids
}
