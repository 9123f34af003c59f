package redis

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mcoot/rpsgame/internal/model"
)

// Room records are stored as a flat hash so that each slot sub-field is an
// independent hash field: owner, roundStatus, revision, lastRound,
// player1.userId, player1.choice, ..., player2.online.

const (
	fieldOwner       = "owner"
	fieldRoundStatus = "roundStatus"
	fieldRevision    = "revision"
	fieldLastRound   = "lastRound"

	subUserID           = "userId"
	subUsername         = "username"
	subChoice           = "choice"
	subIsReady          = "isReady"
	subRestartRequested = "restartRequested"
	subOnline           = "online"
)

func slotField(slot model.Slot, sub string) string {
	return string(slot) + "." + sub
}

func encodeSlot(fields map[string]any, slot model.Slot, p *model.PlayerSlot) {
	choice := ""
	if p.Choice != nil {
		choice = string(*p.Choice)
	}
	fields[slotField(slot, subUserID)] = string(p.UserID)
	fields[slotField(slot, subUsername)] = p.Username
	fields[slotField(slot, subChoice)] = choice
	fields[slotField(slot, subIsReady)] = strconv.FormatBool(p.IsReady)
	fields[slotField(slot, subRestartRequested)] = strconv.FormatBool(p.RestartRequested)
	fields[slotField(slot, subOnline)] = strconv.FormatBool(p.Online)
}

// encodeRoomState flattens a record into hash fields
func encodeRoomState(state *model.RoomState) (map[string]any, error) {
	fields := map[string]any{
		fieldOwner:       string(state.Owner),
		fieldRoundStatus: string(state.RoundStatus),
		fieldRevision:    strconv.FormatInt(state.Revision, 10),
		fieldLastRound:   "",
	}
	if state.LastRound != nil {
		data, err := json.Marshal(state.LastRound)
		if err != nil {
			return nil, err
		}
		fields[fieldLastRound] = string(data)
	}
	encodeSlot(fields, model.SlotPlayer1, &state.Player1)
	if state.Player2 != nil {
		encodeSlot(fields, model.SlotPlayer2, state.Player2)
	}
	return fields, nil
}

func decodeBool(fields map[string]string, name string) (bool, error) {
	raw, ok := fields[name]
	if !ok || raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return b, nil
}

func decodeSlot(fields map[string]string, slot model.Slot) (*model.PlayerSlot, error) {
	id, ok := fields[slotField(slot, subUserID)]
	if !ok || id == "" {
		return nil, nil
	}
	p := &model.PlayerSlot{
		UserID:   model.UserID(id),
		Username: fields[slotField(slot, subUsername)],
	}
	if raw := fields[slotField(slot, subChoice)]; raw != "" {
		m := model.Move(raw)
		p.Choice = &m
	}
	var err error
	if p.IsReady, err = decodeBool(fields, slotField(slot, subIsReady)); err != nil {
		return nil, err
	}
	if p.RestartRequested, err = decodeBool(fields, slotField(slot, subRestartRequested)); err != nil {
		return nil, err
	}
	if p.Online, err = decodeBool(fields, slotField(slot, subOnline)); err != nil {
		return nil, err
	}
	return p, nil
}

// decodeRoomState rebuilds a record from hash fields
func decodeRoomState(key model.RoomKey, fields map[string]string) (*model.RoomState, error) {
	state := &model.RoomState{
		Key:         key,
		Owner:       model.UserID(fields[fieldOwner]),
		RoundStatus: model.RoundStatus(fields[fieldRoundStatus]),
	}
	if raw := fields[fieldRevision]; raw != "" {
		rev, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode revision: %w", err)
		}
		state.Revision = rev
	}
	if raw := fields[fieldLastRound]; raw != "" {
		var rec model.RoundRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode last round: %w", err)
		}
		state.LastRound = &rec
	}

	p1, err := decodeSlot(fields, model.SlotPlayer1)
	if err != nil {
		return nil, err
	}
	if p1 != nil {
		state.Player1 = *p1
	}
	if state.Player2, err = decodeSlot(fields, model.SlotPlayer2); err != nil {
		return nil, err
	}
	return state, nil
}
