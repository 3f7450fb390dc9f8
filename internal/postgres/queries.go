package postgres

const (
	qCreateUser = `
		INSERT INTO users (username, name)
		VALUES ($1, $2)`

	qGetUser = `SELECT username, name FROM users WHERE username=$1`

	qListUsers = `SELECT username, name FROM users ORDER BY username`

	// ON CONFLICT ... DO UPDATE нужен, чтобы RETURNING отдал уже существующую строку
	qEnsureChat = `
		INSERT INTO chats (id, user1, user2)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET id = EXCLUDED.id
		RETURNING id, user1, user2, created_at`

	qGetChat = `SELECT id, user1, user2, created_at FROM chats WHERE id=$1`

	qListChats = `
		SELECT id, user1, user2, created_at
		FROM chats
		WHERE $1 = '' OR user1 = $1 OR user2 = $1
		ORDER BY id`

	qCreateMessage = `
		INSERT INTO messages (chat_id, sender, content, file_attachment, reply_to)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	qGetMessage = `
		SELECT id, chat_id, sender, content, file_attachment, reply_to, created_at
		FROM messages WHERE id=$1`

	qListMessages = `
		SELECT id, chat_id, sender, content, file_attachment, reply_to, created_at
		FROM messages
		WHERE chat_id = $1
		  AND (
		    $2::timestamptz IS NULL
		    OR created_at < $2
		    OR (created_at = $2 AND id < $3)
		  )
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	qCreateGroup = `INSERT INTO groups (id, name, admin) VALUES ($1, $2, $3)`

	qGetGroup = `SELECT id, name, admin FROM groups WHERE id=$1`

	qListGroups = `SELECT id, name, admin FROM groups ORDER BY id`

	qAddGroupUser = `
		INSERT INTO group_users (group_id, username)
		VALUES ($1, $2)
		RETURNING id`

	qListGroupUsers = `
		SELECT id, group_id, username
		FROM group_users
		WHERE ($1 = '' OR group_id = $1)
		  AND ($2 = '' OR username = $2)
		ORDER BY group_id, username`

	qCreateGroupMessage = `
		INSERT INTO group_messages (group_id, sender, content, file_attachment, reply_to)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	qGetGroupMessage = `
		SELECT id, group_id, sender, content, file_attachment, reply_to, created_at
		FROM group_messages WHERE id=$1`

	qListGroupMessages = `
		SELECT id, group_id, sender, content, file_attachment, reply_to, created_at
		FROM group_messages
		WHERE group_id = $1
		  AND (
		    $2::timestamptz IS NULL
		    OR created_at < $2
		    OR (created_at = $2 AND id < $3)
		  )
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	qCreateCommonMessage = `
		INSERT INTO common_messages (sender, content)
		VALUES ($1, $2)
		RETURNING id, created_at`

	qGetCommonMessage = `SELECT id, sender, content, created_at FROM common_messages WHERE id=$1`

	qListCommonMessages = `
		SELECT id, sender, content, created_at
		FROM common_messages
		WHERE $1::timestamptz IS NULL
		   OR created_at < $1
		   OR (created_at = $1 AND id < $2)
		ORDER BY created_at DESC, id DESC
		LIMIT $3`
)
