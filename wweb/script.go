package wweb

// bridgeJS installs window.__wagate on the WhatsApp Web page. All functions
// return JSON strings so the Go side never touches live page objects — the
// records that cross the CDP boundary are built here, without client
// back-references.
//
// The Store bindings follow the whatsapp-web.js approach: the page's webpack
// module registry is probed for the internal collections once the app has
// booted. Before that, only the login-screen probes (QR code, state) work.
const bridgeJS = `() => {
	if (window.__wagate) return true;

	const W = {};

	W.getStore = () => {
		if (W.store) return W.store;
		if (!window.require) return null;
		try {
			W.store = {
				Chat: window.require('WAWebChatCollection').ChatCollection,
				Contact: window.require('WAWebContactCollection').ContactCollection,
				Msg: window.require('WAWebMsgCollection').MsgCollection,
				Conn: window.require('WAWebConnModel').Conn,
				State: window.require('WAWebSocketModel').Socket,
				SendMessage: window.require('WAWebSendMsgChatAction'),
				SendSeen: window.require('WAWebUpdateUnreadChatAction'),
				ArchiveChat: window.require('WAWebChatArchiveAction'),
				PinChat: window.require('WAWebChatPinAction'),
				MuteChat: window.require('WAWebChatMuteAction'),
				BlockContact: window.require('WAWebBlockContactAction'),
				ProfilePic: window.require('WAWebContactProfilePicThumbBridge'),
				StatusUtils: window.require('WAWebContactStatusBridge'),
				Profile: window.require('WAWebSetPushnameConnAction'),
				Logout: window.require('WAWebLogoutAction'),
				MediaPrep: window.require('WAWebPrepRawMedia'),
				OpaqueData: window.require('WAWebOpaqueData'),
			};
			return W.store;
		} catch (e) {
			return null;
		}
	};

	const chatRecord = (chat) => ({
		id: chat.id._serialized,
		name: chat.formattedTitle || chat.name || '',
		server: chat.id.server,
		isGroup: chat.isGroup === true,
		isReadOnly: chat.isReadOnly === true,
		isChannel: chat.isNewsletter === true,
		viewerRole: chat.newsletterMetadata ? (chat.newsletterMetadata.viewerMetadata || {}).role || '' : '',
		unreadCount: chat.unreadCount || 0,
		timestamp: chat.t || 0,
		isArchived: chat.archive === true,
		isPinned: !!chat.pin,
		isMuted: chat.mute ? chat.mute.isMuted === true : false,
	});

	const contactRecord = (c) => ({
		id: c.id._serialized,
		name: c.name || '',
		pushname: c.pushname || '',
		number: c.id.user,
		isMyContact: c.isMyContact === true,
		isBusiness: c.isBusiness === true,
		isBlocked: c.isContactBlocked === true,
	});

	const msgRecord = (m) => ({
		id: {
			id: m.id.id,
			_serialized: m.id._serialized,
			fromMe: m.id.fromMe,
			remote: m.id.remote._serialized || String(m.id.remote),
		},
		chatId: m.id.remote._serialized || String(m.id.remote),
		from: m.from ? m.from._serialized || String(m.from) : '',
		to: m.to ? m.to._serialized || String(m.to) : '',
		author: m.author ? m.author._serialized || String(m.author) : '',
		body: m.body || '',
		type: m.type || 'chat',
		timestamp: m.t || 0,
		fromMe: m.id.fromMe,
		ack: m.ack || 0,
		hasMedia: !!m.mediaData,
	});

	// Event queue, drained by the Go poll loop. Bounded so a stalled
	// consumer cannot grow the page heap without limit.
	W.events = [];
	W.pushEvent = (type, data) => {
		if (W.events.length >= 512) W.events.shift();
		W.events.push({ type, data });
	};

	W.hooked = false;
	W.hookEvents = () => {
		const S = W.getStore();
		if (!S || W.hooked) return;
		W.hooked = true;
		S.Msg.on('add', (m) => {
			if (m.isNewMsg) {
				const rec = msgRecord(m);
				W.pushEvent('message_create', rec);
				if (!m.id.fromMe) W.pushEvent('message', rec);
			}
		});
		S.Msg.on('change:ack', (m) => {
			W.pushEvent('message_ack', { message: msgRecord(m), ack: m.ack });
		});
	};

	// state probes the page: QR login screen, booting, or authenticated app.
	W.state = () => {
		const S = W.getStore();
		if (S && S.Conn) {
			W.hookEvents();
			const s = S.State.state;
			if (s === 'CONNECTED') return { state: 'ready' };
			if (s === 'UNPAIRED' || s === 'UNPAIRED_IDLE') return { state: 'disconnected', reason: s };
			return { state: 'authenticated' };
		}
		const ref = document.querySelector('div[data-ref]');
		if (ref) return { state: 'qr', qr: ref.getAttribute('data-ref') };
		const failure = document.querySelector('[data-testid="link-device-error"]');
		if (failure) return { state: 'auth_failure', message: failure.textContent || 'pairing rejected' };
		return { state: 'loading' };
	};

	W.poll = () => {
		const st = W.state();
		const events = W.events.splice(0, W.events.length);
		return JSON.stringify({ ...st, events });
	};

	const S = () => {
		const s = W.getStore();
		if (!s) throw new Error('store not available, client not ready');
		return s;
	};

	W.getState = () => {
		const s = W.getStore();
		return JSON.stringify(s && s.State.state === 'CONNECTED' ? 'CONNECTED' : 'NOT_READY');
	};

	W.getInfo = () => {
		const s = S();
		return JSON.stringify({
			id: s.Conn.wid._serialized,
			pushname: s.Conn.pushname || '',
			platform: s.Conn.platform || '',
		});
	};

	W.getChats = () => JSON.stringify(S().Chat.getModelsArray().map(chatRecord));

	W.getChatById = (id) => {
		const chat = S().Chat.get(id);
		return JSON.stringify(chat ? chatRecord(chat) : null);
	};

	W.getContacts = () => JSON.stringify(S().Contact.getModelsArray().map(contactRecord));

	W.getContactById = (id) => {
		const c = S().Contact.get(id);
		return JSON.stringify(c ? contactRecord(c) : null);
	};

	W.sendMessage = async (chatId, content, optsJSON) => {
		const s = S();
		const opts = optsJSON ? JSON.parse(optsJSON) : {};
		const chat = await s.Chat.find(chatId);
		if (!chat) throw new Error('chat ' + chatId + ' not found');

		let body = content;
		const extra = {};
		if (opts.quotedMessageId) extra.quotedMsg = s.Msg.get(opts.quotedMessageId);
		if (opts.linkPreview === false) extra.linkPreview = null;

		if (opts.media) {
			const bin = atob(opts.media.data);
			const bytes = new Uint8Array(bin.length);
			for (let i = 0; i < bin.length; i++) bytes[i] = bin.charCodeAt(i);
			const blob = new Blob([bytes], { type: opts.media.mimetype });
			const file = new File([blob], opts.media.filename || 'file', { type: opts.media.mimetype });
			const data = await s.OpaqueData.createFromData(file, file.type);
			const media = await s.MediaPrep.prepRawMedia(data, { asDocument: false });
			const sent = await media.sendToChat(chat, { caption: opts.caption || content || '' });
			return JSON.stringify(msgRecord(sent));
		}

		const sent = await s.SendMessage.addAndSendTextMsg(chat, body, extra);
		if (opts.sendSeen !== false) s.SendSeen.markSeen(chat);
		return JSON.stringify(msgRecord(sent[1] || sent));
	};

	W.fetchMessages = async (chatId, limit) => {
		const chat = await S().Chat.find(chatId);
		if (!chat) throw new Error('chat ' + chatId + ' not found');
		await chat.loadEarlierMsgs();
		const msgs = chat.msgs.getModelsArray().slice(-limit);
		return JSON.stringify(msgs.map(msgRecord));
	};

	W.archiveChat = async (chatId, archived) => {
		const s = S();
		const chat = await s.Chat.find(chatId);
		await s.ArchiveChat.setArchive(chat, archived);
		return 'true';
	};

	W.pinChat = async (chatId, pinned) => {
		const s = S();
		const chat = await s.Chat.find(chatId);
		await s.PinChat.setPin(chat, pinned);
		return 'true';
	};

	W.muteChat = async (chatId, muted) => {
		const s = S();
		const chat = await s.Chat.find(chatId);
		if (muted) {
			await s.MuteChat.muteChat(chat, { expiration: -1 });
		} else {
			await s.MuteChat.unmuteChat(chat);
		}
		return 'true';
	};

	W.markChatUnread = async (chatId) => {
		const s = S();
		const chat = await s.Chat.find(chatId);
		await s.SendSeen.markUnread(chat, true);
		return 'true';
	};

	W.sendSeen = async (chatId) => {
		const s = S();
		const chat = await s.Chat.find(chatId);
		await s.SendSeen.markSeen(chat);
		return 'true';
	};

	W.clearMessages = async (chatId) => {
		const s = S();
		const chat = await s.Chat.find(chatId);
		await s.Chat.clear(chat);
		return 'true';
	};

	W.deleteChat = async (chatId) => {
		const s = S();
		const chat = await s.Chat.find(chatId);
		await s.Chat.delete(chat);
		return 'true';
	};

	W.blockContact = async (contactId, blocked) => {
		const s = S();
		const contact = s.Contact.get(contactId);
		if (!contact) throw new Error('contact ' + contactId + ' not found');
		if (blocked) {
			await s.BlockContact.blockContact({ contact });
		} else {
			await s.BlockContact.unblockContact(contact);
		}
		return 'true';
	};

	W.getProfilePicUrl = async (id) => {
		const pic = await S().ProfilePic.requestProfilePicFromServer(id);
		return JSON.stringify(pic && pic.eurl ? pic.eurl : '');
	};

	W.getAbout = async (contactId) => {
		const st = await S().StatusUtils.getStatus(contactId);
		return JSON.stringify(st && st.status ? st.status : '');
	};

	W.setDisplayName = async (name) => {
		await S().Profile.setPushname(name);
		return 'true';
	};

	W.setStatusMessage = async (status) => {
		await S().StatusUtils.setMyStatus(status);
		return 'true';
	};

	W.logout = async () => {
		await S().Logout.logout();
		return 'true';
	};

	window.__wagate = W;
	return true;
}`
