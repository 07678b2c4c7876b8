package redis

import (
	"fmt"

	"github.com/mcoot/quizroom/internal/model"
)

// Key prefix for all quiz data
const keyPrefix = "qz"

// deviceKey returns the Redis key for a Device
func deviceKey(id model.DeviceID) string {
	return fmt.Sprintf("%s:device:%s", keyPrefix, id)
}

// deviceTokenIndexKey returns the Redis key for the token digest -> device id index
func deviceTokenIndexKey(tokenHash string) string {
	return fmt.Sprintf("%s:idx:device_token:%s", keyPrefix, tokenHash)
}

// sessionKey returns the Redis key for a Session
func sessionKey(id model.SessionID) string {
	return fmt.Sprintf("%s:session:%s", keyPrefix, id)
}

// joinTokenKey returns the Redis key for a JoinToken
func joinTokenKey(token string) string {
	return fmt.Sprintf("%s:join_token:%s", keyPrefix, token)
}

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// playerKeyPattern matches every player key
func playerKeyPattern() string {
	return fmt.Sprintf("%s:player:*", keyPrefix)
}

// playerSeatKey returns the Redis key claiming a (device, session, role) triple for one player
func playerSeatKey(p *model.Player) string {
	return fmt.Sprintf("%s:idx:player_seat:%s:%s:%d", keyPrefix, p.DeviceID, p.SessionID, p.Role)
}

// sessionPlayersIndexKey returns the Redis key for the SET of player ids in a session
func sessionPlayersIndexKey(id model.SessionID) string {
	return fmt.Sprintf("%s:idx:session_players:%s", keyPrefix, id)
}

// devicePlayersIndexKey returns the Redis key for the SET of player ids owned by a device
func devicePlayersIndexKey(id model.DeviceID) string {
	return fmt.Sprintf("%s:idx:device_players:%s", keyPrefix, id)
}

// questionKey returns the Redis key for a Question
func questionKey(id model.QuestionID) string {
	return fmt.Sprintf("%s:question:%s", keyPrefix, id)
}

// sessionQuestionsIndexKey returns the Redis key for the SET of question ids in a session
func sessionQuestionsIndexKey(id model.SessionID) string {
	return fmt.Sprintf("%s:idx:session_questions:%s", keyPrefix, id)
}

// answerKey returns the Redis key for a player's Answer to a question
func answerKey(questionID model.QuestionID, playerID model.PlayerID) string {
	return fmt.Sprintf("%s:answer:%s:%s", keyPrefix, questionID, playerID)
}
