package game

import "time"

// TurnEnded marks a finished game. Every other valid turn is >= 0.
const TurnEnded = -1

type WordStatus string

const (
	WordGuessed WordStatus = "guessed"
	WordLeft    WordStatus = "left"
	WordMissed  WordStatus = "missed"
)

func (s WordStatus) Valid() bool {
	switch s {
	case WordGuessed, WordLeft, WordMissed:
		return true
	default:
		return false
	}
}

type Settings struct {
	Difficulty    int `json:"difficulty"`
	WordsQty      int `json:"wordsQty"`
	RoundDuration int `json:"roundDuration"`
}

type Words struct {
	Current      string       `json:"currentWord"`
	Left         []string     `json:"leftWords"`
	Guessed      []string     `json:"guessedWords"`
	Missed       []string     `json:"missedWords"`
	Basket       []string     `json:"basketWords"`
	BasketStatus []WordStatus `json:"basketStatus"`
}

type Player struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Accepted       bool      `json:"accepted"`
	LastTimeInGame time.Time `json:"lastTimeInGame"`
	TellGuessed    int       `json:"tellGuessed"`
	ListenGuessed  int       `json:"listenGuessed"`
}

// Session is the authoritative record every polling client converges on.
type Session struct {
	ID              string    `json:"id"`
	Code            string    `json:"code,omitempty"`
	OwnerID         string    `json:"ownerId"`
	Turn            int       `json:"turn"`
	GuessedThisTurn int       `json:"guessedThisTurn"`
	ExplainTime     time.Time `json:"explainTime"`
	BasketChange    int       `json:"basketChange"`
	LastWord        *string   `json:"lastWord,omitempty"`
	Settings        Settings  `json:"settings"`
	Words           Words     `json:"words"`
	Players         []Player  `json:"players"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (s *Session) Ended() bool {
	return IsEnded(s.Turn)
}

func (s *Session) FindPlayer(id string) (*Player, bool) {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i], true
		}
	}
	return nil, false
}

func (s *Session) HasPlayer(id string) bool {
	_, ok := s.FindPlayer(id)
	return ok
}

func (s *Session) Frequent() Frequent {
	return Frequent{
		Turn:            s.Turn,
		GuessedThisTurn: s.GuessedThisTurn,
		LastWord:        s.LastWord,
		ExplainTime:     s.ExplainTime,
		BasketChange:    s.BasketChange,
	}
}

// Frequent holds the hot fields polled every second or so.
type Frequent struct {
	Turn            int       `json:"turn"`
	GuessedThisTurn int       `json:"guessedThisTurn"`
	LastWord        *string   `json:"lastWord,omitempty"`
	ExplainTime     time.Time `json:"explainTime"`
	BasketChange    int       `json:"basketChange"`
}

// JudgedWord is a word outcome reported in a full update since the
// previous full update.
type JudgedWord struct {
	Word        string     `json:"word"`
	TimeGuessed int        `json:"timeGuessed"`
	Status      WordStatus `json:"guessedStatus"`
}

// FullUpdate is the payload of UpdateFull: the whole mutable aggregate plus
// the judged-word delta.
type FullUpdate struct {
	Turn            int          `json:"turn"`
	GuessedThisTurn int          `json:"guessedThisTurn"`
	ExplainTime     time.Time    `json:"explainTime"`
	BasketChange    int          `json:"basketChange"`
	LastWord        *string      `json:"lastWord,omitempty"`
	Settings        Settings     `json:"settings"`
	Words           Words        `json:"words"`
	Players         []Player     `json:"players"`
	WordsData       []JudgedWord `json:"wordsData"`
}

// WordEvent is an immutable ledger row for one judged word.
type WordEvent struct {
	GameID      string     `json:"gameId"`
	Word        string     `json:"word"`
	TimeGuessed int        `json:"timeGuessed"`
	Status      WordStatus `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
}

type PlayerStatus struct {
	PlayerID       string    `json:"playerId"`
	Name           string    `json:"name"`
	Accepted       bool      `json:"accepted"`
	LastTimeInGame time.Time `json:"lastTimeInGame"`
}

type PlayersStatus struct {
	Players []PlayerStatus `json:"players"`
	Turn    int            `json:"turn"`
}

type Summary struct {
	ID        string    `json:"id"`
	Code      string    `json:"code,omitempty"`
	OwnerID   string    `json:"ownerId"`
	OwnerName string    `json:"userOwnerName"`
	Turn      int       `json:"turn"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Identity is the authenticated caller as supplied by the identity layer.
type Identity struct {
	ID    string
	Name  string
	Admin bool
}

type Created struct {
	ID   string `json:"id"`
	Code string `json:"code"`
}
