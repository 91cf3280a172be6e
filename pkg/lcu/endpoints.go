package lcu

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Game phases reported by GameflowPhase that the automation acts on.
const (
	PhaseReadyCheck  = "ReadyCheck"
	PhaseChampSelect = "ChampSelect"
)

// Champion select action types.
const (
	ActionPick = "pick"
	ActionBan  = "ban"
)

// Summoner is the signed-in player.
type Summoner struct {
	GameName      string `json:"gameName"`
	TagLine       string `json:"tagLine"`
	SummonerLevel int    `json:"summonerLevel"`
}

// Handle returns the Name#Tag form.
func (s Summoner) Handle() string {
	return s.GameName + "#" + s.TagLine
}

// Action is one pick or ban slot in champion select.
type Action struct {
	ID          int    `json:"id"`
	ActorCellID int    `json:"actorCellId"`
	ChampionID  int    `json:"championId"`
	Type        string `json:"type"`
	Completed   bool   `json:"completed"`
}

// ChampSelect is the champion select session.
type ChampSelect struct {
	LocalPlayerCellID int        `json:"localPlayerCellId"`
	Actions           [][]Action `json:"actions"`
}

// PendingActions returns the uncompleted actions of the given type that
// belong to the local player, in the order the client lists them.
func (c ChampSelect) PendingActions(actionType string) []Action {
	var pending []Action
	for _, group := range c.Actions {
		for _, a := range group {
			if a.ActorCellID == c.LocalPlayerCellID && a.Type == actionType && !a.Completed {
				pending = append(pending, a)
			}
		}
	}
	return pending
}

// Champion is an entry of the champion summary.
type Champion struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Alias string `json:"alias"`
}

// FindChampion resolves a numeric id, a display name or an alias,
// case-insensitively. Entries with a non-positive id are never returned.
func FindChampion(champions []Champion, query string) (Champion, bool) {
	query = strings.TrimSpace(query)
	id, idErr := strconv.Atoi(query)

	for _, c := range champions {
		if c.ID <= 0 {
			continue
		}
		if idErr == nil && c.ID == id {
			return c, true
		}
		if strings.EqualFold(c.Name, query) || strings.EqualFold(c.Alias, query) {
			return c, true
		}
	}
	return Champion{}, false
}

// get issues a GET and decodes a 2xx body into v.
func (h *Handler) get(ctx context.Context, path string, v interface{}) error {
	resp, err := h.Call(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: GET %s: %d", ErrUnexpectedStatus, path, resp.Status)
	}
	return resp.Decode(v)
}

// send issues a request whose reply body is ignored.
func (h *Handler) send(ctx context.Context, method, path string, body interface{}) error {
	resp, err := h.Call(ctx, method, path, body)
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("%w: %s %s: %d", ErrUnexpectedStatus, method, path, resp.Status)
	}
	return nil
}

// CurrentSummoner returns the signed-in player.
func (h *Handler) CurrentSummoner(ctx context.Context) (Summoner, error) {
	var s Summoner
	err := h.get(ctx, "/lol-summoner/v1/current-summoner", &s)
	return s, err
}

// GameflowPhase returns the current game phase, e.g. "Lobby" or "ReadyCheck".
func (h *Handler) GameflowPhase(ctx context.Context) (string, error) {
	var phase string
	err := h.get(ctx, "/lol-gameflow/v1/gameflow-phase", &phase)
	return phase, err
}

// AcceptReadyCheck accepts a pending match. Repeating it is harmless.
func (h *Handler) AcceptReadyCheck(ctx context.Context) error {
	return h.send(ctx, http.MethodPost, "/lol-matchmaking/v1/ready-check/accept", nil)
}

// ChampSelectSession returns the champion select session.
func (h *Handler) ChampSelectSession(ctx context.Context) (ChampSelect, error) {
	var cs ChampSelect
	err := h.get(ctx, "/lol-champ-select/v1/session", &cs)
	return cs, err
}

// PatchAction completes a pick or ban action with the given champion.
func (h *Handler) PatchAction(ctx context.Context, actionID, championID int) error {
	body := map[string]interface{}{
		"championId": championID,
		"completed":  true,
	}
	return h.send(ctx, http.MethodPatch, "/lol-champ-select/v1/session/actions/"+strconv.Itoa(actionID), body)
}

// StoreWallet returns the raw store wallet document.
func (h *Handler) StoreWallet(ctx context.Context) (json.RawMessage, error) {
	var raw json.RawMessage
	err := h.get(ctx, "/lol-store/v1/wallet", &raw)
	return raw, err
}

// InventoryWallet returns the raw inventory wallet for the given currencies.
func (h *Handler) InventoryWallet(ctx context.Context, currencies ...string) (json.RawMessage, error) {
	var raw json.RawMessage
	err := h.get(ctx, "/lol-inventory/v1/wallet?currencyTypes="+jsonListQuery(currencies), &raw)
	return raw, err
}

// SkinInventory returns the number of owned skins. A body that is not a
// list counts as zero.
func (h *Handler) SkinInventory(ctx context.Context) (int, error) {
	var raw json.RawMessage
	if err := h.get(ctx, "/lol-inventory/v1/inventory?inventoryTypes="+jsonListQuery([]string{"CHAMPION_SKIN"}), &raw); err != nil {
		return 0, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return 0, nil
	}
	return len(items), nil
}

// ChampionSummary returns every champion known to the client.
func (h *Handler) ChampionSummary(ctx context.Context) ([]Champion, error) {
	var champions []Champion
	err := h.get(ctx, "/lol-game-data/assets/v1/champion-summary.json", &champions)
	return champions, err
}

// Chat availability values accepted by SetChatAvailability.
var ChatAvailabilities = []string{"chat", "away", "dnd"}

// SetChatAvailability changes the chat presence of the signed-in player.
func (h *Handler) SetChatAvailability(ctx context.Context, availability string) error {
	valid := false
	for _, a := range ChatAvailabilities {
		if a == availability {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("unknown chat availability %q", availability)
	}

	body := map[string]interface{}{
		"availability": availability,
		"lol":          map[string]string{"gameStatus": "outOfGame"},
	}
	return h.send(ctx, http.MethodPut, "/lol-chat/v1/me", body)
}

// jsonListQuery encodes values as an escaped JSON string array.
func jsonListQuery(values []string) string {
	data, _ := json.Marshal(values)
	return url.QueryEscape(string(data))
}
