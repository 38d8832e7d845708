// Copyright 2024 New Vector Ltd.
//
// SPDX-License-Identifier: AGPL-3.0-only OR LicenseRef-Element-Commercial
// Please see LICENSE files in the repository root for full details.

// Package save implements the bit-accurate codec between the 0x1450-byte
// N64 save-RAM layout and an idiomatic in-memory Save value, grounded in
// fenhl/oottracker's save.rs.
package save

import "encoding/binary"

// Size is the fixed byte length of a well-formed save buffer.
const Size = 0x1450

const (
	offIsAdult            = 0x0004
	offTimeOfDay          = 0x000c
	offSignature          = 0x001c
	offMagicAcquired      = 0x0032
	offMagicHas           = 0x003a
	offMagicLevel         = 0x003c
	offBiggoronSword      = 0x003e
	offDmtBiggoronChecked = 0x0072
	offInventory          = 0x0074
	offInvAmounts         = 0x008c
	offNumReceivedMwItems = 0x0090
	offEquipment          = 0x009c
	offUpgrades           = 0x00a0
	offQuestItems         = 0x00a4
	offDungeonItems       = 0x00a8
	offSmallKeys          = 0x00bc
	offSkullTokens        = 0x00d0
	offSceneFlags         = 0x00d4
	offGoldSkulltulas     = 0x0e9c
	offBigPoes            = 0x0ebc
	offFishingContext     = 0x0ec0
	offEventChkInf        = 0x0ed4
	offItemGetInf         = 0x0ef0
	offInfTable           = 0x0ef8
	offScarecrowSongChild = 0x12c5
	offGameMode           = 0x135c

	numDungeons     = 20
	numSmallKeyDungeons = 19
	numScenes       = 101
	sceneRecordSize = 28
)

var signature = [6]byte{'Z', 'E', 'L', 'D', 'A', 'Z'}

// SceneRecord is the seven parallel 32-bit words of one scene's 28-byte
// flag record (see internal/scene for the symbolic bit bindings).
type SceneRecord struct {
	Chests, Switches, RoomClear, Collectible, Unused, VisitedRooms, VisitedFloors uint32
}

func decodeSceneRecord(b []byte) SceneRecord {
	return SceneRecord{
		Chests:         binary.BigEndian.Uint32(b[0:4]),
		Switches:       binary.BigEndian.Uint32(b[4:8]),
		RoomClear:      binary.BigEndian.Uint32(b[8:12]),
		Collectible:    binary.BigEndian.Uint32(b[12:16]),
		Unused:         binary.BigEndian.Uint32(b[16:20]),
		VisitedRooms:   binary.BigEndian.Uint32(b[20:24]),
		VisitedFloors:  binary.BigEndian.Uint32(b[24:28]),
	}
}

func (r SceneRecord) encode(b []byte) {
	binary.BigEndian.PutUint32(b[0:4], r.Chests)
	binary.BigEndian.PutUint32(b[4:8], r.Switches)
	binary.BigEndian.PutUint32(b[8:12], r.RoomClear)
	binary.BigEndian.PutUint32(b[12:16], r.Collectible)
	binary.BigEndian.PutUint32(b[16:20], r.Unused)
	binary.BigEndian.PutUint32(b[20:24], r.VisitedRooms)
	binary.BigEndian.PutUint32(b[24:28], r.VisitedFloors)
}

// Save is the authoritative playthrough state: a total function of a
// Size-byte save buffer. The original raw bytes are retained internally so
// that Encode(Decode(b)) reproduces every byte this model does not
// interpret (see TESTABLE PROPERTIES #1 in SPEC_FULL.md).
type Save struct {
	raw [Size]byte

	IsAdult            bool
	TimeOfDay          TimeOfDay
	Magic              MagicCapacity
	BiggoronSword      bool
	DmtBiggoronChecked bool
	Inventory          Inventory
	InvAmounts         InvAmounts
	Equipment          Equipment
	Upgrades           Upgrades
	QuestItems         QuestItems
	DungeonItems       [numDungeons]DungeonItems
	SmallKeys          [numSmallKeyDungeons]uint8
	SkullTokens        int16
	SceneFlags         [numScenes]SceneRecord
	GoldSkulltulas     [24]byte
	BigPoePoints       uint32
	FishingContext     FishingContext
	EventChkInf        [14]uint16
	ItemGetInf         [4]uint16
	InfTable           [30]uint16
	ScarecrowSongChild bool
	GameMode           GameMode
}

func decodeBool(b byte, offset int, field string) (bool, error) {
	switch b {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, errUnexpectedValue(offset, field, uint32(b))
	}
}

// Decode parses a Size-byte save buffer into a Save, or returns a
// *DecodeError carrying offset/field context. It never panics on
// malformed input; only a wrong-size buffer is treated as fatal, per
// ERROR HANDLING DESIGN.
func Decode(b []byte) (*Save, error) {
	if len(b) != Size {
		return nil, errSize(len(b))
	}
	var s Save
	copy(s.raw[:], b)

	var sig [6]byte
	copy(sig[:], b[offSignature:offSignature+6])
	if sig != signature {
		return nil, errAssertEq(offSignature, "signature", signature[:], sig[:])
	}

	isAdultRaw := binary.BigEndian.Uint32(b[offIsAdult : offIsAdult+4])
	switch isAdultRaw {
	case 0:
		s.IsAdult = true
	case 1:
		s.IsAdult = false
	default:
		return nil, errUnexpectedValue(offIsAdult, "is_adult", isAdultRaw)
	}

	s.TimeOfDay = TimeOfDay(binary.BigEndian.Uint16(b[offTimeOfDay : offTimeOfDay+2]))

	magic, err := decodeMagicCapacity(b[offMagicAcquired], b[offMagicHas], b[offMagicLevel])
	if err != nil {
		return nil, err
	}
	s.Magic = magic

	biggoron, err := decodeBool(b[offBiggoronSword], offBiggoronSword, "biggoron_sword")
	if err != nil {
		return nil, err
	}
	s.BiggoronSword = biggoron

	dmtWord := binary.BigEndian.Uint16(b[offDmtBiggoronChecked : offDmtBiggoronChecked+2])
	s.DmtBiggoronChecked = dmtWord&0x0100 != 0

	var rawInv [numInventorySlots]byte
	copy(rawInv[:], b[offInventory:offInventory+numInventorySlots])
	inv, err := decodeInventory(rawInv)
	if err != nil {
		return nil, err
	}
	s.Inventory = inv

	var rawAmounts [4]byte
	copy(rawAmounts[:], b[offInvAmounts:offInvAmounts+4])
	s.InvAmounts = decodeInvAmounts(rawAmounts)
	s.InvAmounts.NumReceivedMwItems = binary.BigEndian.Uint16(b[offNumReceivedMwItems : offNumReceivedMwItems+2])

	s.Equipment = Equipment(binary.BigEndian.Uint16(b[offEquipment : offEquipment+2])).FromBitsTruncate()
	s.Upgrades = Upgrades(binary.BigEndian.Uint32(b[offUpgrades : offUpgrades+4])).FromBitsTruncate()
	s.QuestItems = QuestItems(binary.BigEndian.Uint32(b[offQuestItems : offQuestItems+4])).FromBitsTruncate()

	for i := 0; i < numDungeons; i++ {
		s.DungeonItems[i] = DungeonItems(b[offDungeonItems+i]).FromBitsTruncate()
	}

	for i := 0; i < numSmallKeyDungeons; i++ {
		v := b[offSmallKeys+i]
		if v == 0xff {
			v = 0
		}
		s.SmallKeys[i] = v
	}

	skull := int16(binary.BigEndian.Uint16(b[offSkullTokens : offSkullTokens+2]))
	if skull < 0 {
		skull = 0
	}
	s.SkullTokens = skull

	for i := 0; i < numScenes; i++ {
		start := offSceneFlags + i*sceneRecordSize
		s.SceneFlags[i] = decodeSceneRecord(b[start : start+sceneRecordSize])
	}

	copy(s.GoldSkulltulas[:], b[offGoldSkulltulas:offGoldSkulltulas+24])

	s.BigPoePoints = binary.BigEndian.Uint32(b[offBigPoes:offBigPoes+4]) / 100

	s.FishingContext = FishingContext(binary.BigEndian.Uint32(b[offFishingContext : offFishingContext+4])).FromBitsTruncate()

	for i := 0; i < 14; i++ {
		s.EventChkInf[i] = binary.BigEndian.Uint16(b[offEventChkInf+i*2 : offEventChkInf+i*2+2])
	}
	for i := 0; i < 4; i++ {
		s.ItemGetInf[i] = binary.BigEndian.Uint16(b[offItemGetInf+i*2 : offItemGetInf+i*2+2])
	}
	for i := 0; i < 30; i++ {
		s.InfTable[i] = binary.BigEndian.Uint16(b[offInfTable+i*2 : offInfTable+i*2+2])
	}

	scarecrow, err := decodeBool(b[offScarecrowSongChild], offScarecrowSongChild, "scarecrow_song_child")
	if err != nil {
		return nil, err
	}
	s.ScarecrowSongChild = scarecrow

	gameMode := binary.BigEndian.Uint32(b[offGameMode : offGameMode+4])
	if gameMode > uint32(GameModeFileSelect) {
		return nil, errUnexpectedValue(offGameMode, "game_mode", gameMode)
	}
	s.GameMode = GameMode(gameMode)

	return &s, nil
}

// Encode returns the Size-byte save buffer for s. Bytes this model does not
// interpret are copied forward from the buffer s was last decoded from (or
// zero, for a Save built from scratch), and every derived/redundant byte
// (signature, magic-capacity triple, sentinel small-key bytes) is restored
// to a valid combination.
func (s *Save) Encode() []byte {
	b := make([]byte, Size)
	copy(b, s.raw[:])

	copy(b[offSignature:offSignature+6], signature[:])

	var isAdultRaw uint32
	if !s.IsAdult {
		isAdultRaw = 1
	}
	binary.BigEndian.PutUint32(b[offIsAdult:offIsAdult+4], isAdultRaw)

	binary.BigEndian.PutUint16(b[offTimeOfDay:offTimeOfDay+2], uint16(s.TimeOfDay))

	acquired, has, level := s.Magic.encode()
	b[offMagicAcquired] = acquired
	b[offMagicHas] = has
	b[offMagicLevel] = level

	if s.BiggoronSword {
		b[offBiggoronSword] = 1
	} else {
		b[offBiggoronSword] = 0
	}

	dmtWord := binary.BigEndian.Uint16(b[offDmtBiggoronChecked : offDmtBiggoronChecked+2])
	if s.DmtBiggoronChecked {
		dmtWord |= 0x0100
	} else {
		dmtWord &^= 0x0100
	}
	binary.BigEndian.PutUint16(b[offDmtBiggoronChecked:offDmtBiggoronChecked+2], dmtWord)

	rawInv := s.Inventory.encode()
	copy(b[offInventory:offInventory+numInventorySlots], rawInv[:])

	amounts := s.InvAmounts.encode()
	copy(b[offInvAmounts:offInvAmounts+3], amounts[:])
	binary.BigEndian.PutUint16(b[offNumReceivedMwItems:offNumReceivedMwItems+2], s.InvAmounts.NumReceivedMwItems)

	binary.BigEndian.PutUint16(b[offEquipment:offEquipment+2], uint16(s.Equipment))
	binary.BigEndian.PutUint32(b[offUpgrades:offUpgrades+4], uint32(s.Upgrades))
	binary.BigEndian.PutUint32(b[offQuestItems:offQuestItems+4], uint32(s.QuestItems))

	for i := 0; i < numDungeons; i++ {
		b[offDungeonItems+i] = byte(s.DungeonItems[i])
	}

	for i := 0; i < numSmallKeyDungeons; i++ {
		v := s.SmallKeys[i]
		if v == 0 {
			if s.raw[offSmallKeys+i] != 0xff {
				b[offSmallKeys+i] = 0
			}
		} else {
			b[offSmallKeys+i] = v
		}
	}

	binary.BigEndian.PutUint16(b[offSkullTokens:offSkullTokens+2], uint16(s.SkullTokens))

	for i := 0; i < numScenes; i++ {
		start := offSceneFlags + i*sceneRecordSize
		s.SceneFlags[i].encode(b[start : start+sceneRecordSize])
	}

	copy(b[offGoldSkulltulas:offGoldSkulltulas+24], s.GoldSkulltulas[:])

	binary.BigEndian.PutUint32(b[offBigPoes:offBigPoes+4], s.BigPoePoints*100)

	binary.BigEndian.PutUint32(b[offFishingContext:offFishingContext+4], uint32(s.FishingContext))

	for i := 0; i < 14; i++ {
		binary.BigEndian.PutUint16(b[offEventChkInf+i*2:offEventChkInf+i*2+2], s.EventChkInf[i])
	}
	for i := 0; i < 4; i++ {
		binary.BigEndian.PutUint16(b[offItemGetInf+i*2:offItemGetInf+i*2+2], s.ItemGetInf[i])
	}
	for i := 0; i < 30; i++ {
		binary.BigEndian.PutUint16(b[offInfTable+i*2:offInfTable+i*2+2], s.InfTable[i])
	}

	if s.ScarecrowSongChild {
		b[offScarecrowSongChild] = 1
	} else {
		b[offScarecrowSongChild] = 0
	}

	binary.BigEndian.PutUint32(b[offGameMode:offGameMode+4], uint32(s.GameMode))

	return b
}

// EventChkBit reports the bit at the given page/bit index in event_chk_inf.
func (s *Save) EventChkBit(page, bit int) bool { return s.EventChkInf[page]&(1<<uint(bit)) != 0 }

// ItemGetBit reports the bit at the given page/bit index in item_get_inf.
func (s *Save) ItemGetBit(page, bit int) bool { return s.ItemGetInf[page]&(1<<uint(bit)) != 0 }

// InfTableBit reports the bit at the given page/bit index in inf_table.
func (s *Save) InfTableBit(page, bit int) bool { return s.InfTable[page]&(1<<uint(bit)) != 0 }

// NewFresh returns a vanilla new-game save: child Link, Kokiri Sword, no
// magic, no skulltulas, no quest items, every inventory slot empty. Used
// by the room server to seed a room or multiworld world that has no
// prior persisted state.
func NewFresh() *Save {
	var s Save
	s.Equipment = KokiriSword
	for i := range s.Inventory {
		s.Inventory[i] = ItemNone
	}
	return &s
}
