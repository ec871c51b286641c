package vault

// Profile is a decrypted account record handed to callers while the vault
// is unlocked. The on-disk vault remains the source of truth; mutating a
// Profile does nothing until it is saved back.
type Profile struct {
	// ID is the stable account identifier (UUID v4).
	ID string `json:"id"`
	// Cookie is the plaintext .ROBLOSECURITY session token.
	Cookie string `json:"cookie"`
	// UserID is the Roblox user id behind the token.
	UserID int64 `json:"userId"`
	// Username is the Roblox account name.
	Username string `json:"username"`
	// DisplayName is the Roblox display name.
	DisplayName string `json:"displayName"`
	// Thumbnail is the avatar headshot URL, when resolved.
	Thumbnail *string `json:"thumbnail"`
	// Alias is a user-defined custom name.
	Alias string `json:"alias"`
	// Description is user-defined free-text notes.
	Description string `json:"description"`
	// IsFavorite marks the account as pinned.
	IsFavorite bool `json:"isFavorite"`
	// LastPlayedAt is the last-used timestamp in Unix milliseconds.
	LastPlayedAt int64 `json:"lastPlayedAt"`
	// CreatedAt is the record creation time in Unix seconds.
	CreatedAt int64 `json:"createdAt"`
}

// vaultFile is the on-disk vault record. The verification blob is written
// once at creation and preserved verbatim by every later save so the
// password check stays stable for the life of the vault.
type vaultFile struct {
	Version      int                `json:"version"`
	Verification string             `json:"verification"`
	Accounts     []encryptedAccount `json:"accounts"`
}

// encryptedAccount mirrors Profile with the token replaced by its
// encrypted blob. Field names are part of the vault file format.
type encryptedAccount struct {
	ID              string  `json:"id"`
	EncryptedCookie string  `json:"encryptedCookie"`
	UserID          int64   `json:"userId"`
	Username        string  `json:"username"`
	DisplayName     string  `json:"displayName"`
	Thumbnail       *string `json:"thumbnail"`
	Alias           string  `json:"alias"`
	Description     string  `json:"description"`
	IsFavorite      bool    `json:"isFavorite"`
	LastPlayedAt    int64   `json:"lastPlayedAt"`
	CreatedAt       int64   `json:"createdAt"`
}
