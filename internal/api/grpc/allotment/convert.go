package allotment

import (
	"time"

	domain "github.com/oshokin/room-allotment/internal/domain/allotment"
	pb "github.com/oshokin/room-allotment/internal/pb/v1"
)

// toDomainActor converts a wire SystemActor to a domain Actor.
func toDomainActor(actor *pb.SystemActor) *domain.Actor {
	if actor == nil {
		return nil
	}

	return &domain.Actor{
		Hostname: actor.GetHostname(),
		Username: actor.GetUsername(),
	}
}

func toProtoRoom(room *domain.Room) *pb.Room {
	if room == nil {
		return nil
	}

	return &pb.Room{
		ID:        room.ID,
		Number:    room.Number,
		Capacity:  room.Capacity,
		Available: room.Available,
	}
}

func toProtoGroup(group *domain.Group) *pb.Group {
	if group == nil {
		return nil
	}

	result := &pb.Group{
		ID:             group.ID,
		LeaderID:       group.LeaderID,
		MemberIDs:      group.MemberIDs,
		Size:           group.Size,
		Finalized:      group.Finalized,
		AllottedRoomID: group.AllottedRoom,
		RoomNumber:     group.RoomNumber,
		CreatedAt:      group.CreatedAt,
	}

	if leader := group.Leader; leader != nil {
		result.LeaderName = leader.Name
		result.LeaderRollNumber = leader.RollNumber
		result.LeaderRank = leader.Clone().Rank
	}

	return result
}

func toProtoEvent(event domain.Event) *pb.Event {
	return &pb.Event{
		ID:        event.ID,
		Type:      string(event.Type),
		Recipient: event.Recipient,
		Message:   event.Message,
		Group:     toProtoGroup(event.Group),
		Deadline:  optionalTime(event.Deadline),
		Timestamp: event.Timestamp,
	}
}

// optionalTime returns nil for the zero time.
func optionalTime(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}

	return &value
}
